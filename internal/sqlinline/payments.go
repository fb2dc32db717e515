package sqlinline

const QInsertPayment = `--sql 436a12d9-9bb6-465b-a42c-d978cdb3617a
insert into payments (payment_id, order_id, email, plan_id, credits, amount, created_at)
values ($1::text, $2::text, $3::text, $4::text, $5::int, $6::bigint, $7::timestamptz);
`
