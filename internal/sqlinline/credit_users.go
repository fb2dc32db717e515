package sqlinline

const QSelectCreditUser = `--sql cb37d592-729a-43f5-94e6-e594bd50bbc6
select email, free_credits, purchased_credits, last_free_credit_reset, version, created_at, updated_at
from credit_users
where email = $1::text
limit 1;
`

const QInsertCreditUser = `--sql d50b9946-6743-4359-a56d-476a696baae5
insert into credit_users (email, free_credits, purchased_credits, last_free_credit_reset, version, created_at, updated_at)
values ($1::text, $2::int, $3::int, $4::timestamptz, 0, $5::timestamptz, $5::timestamptz);
`

const QUpdateCreditUser = `--sql 7afafa27-f3f0-4832-bbf4-4d3e8320359c
update credit_users set
    free_credits = $2::int,
    purchased_credits = $3::int,
    last_free_credit_reset = $4::timestamptz,
    updated_at = $5::timestamptz,
    version = version + 1
where email = $1::text
  and version = $6::bigint;
`
