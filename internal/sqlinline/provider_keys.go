package sqlinline

const QSelectProviderKey = `--sql 3c51e7a2-94b6-4d0f-a8c3-5e2f71d90b46
select api_key
from provider_keys
where provider = $1::text;
`

// QUpsertProviderKey counts rotations so operators can see when a key changed.
const QUpsertProviderKey = `--sql e0b4d6f8-2a17-4c93-b5e1-8d7c03a6f152
insert into provider_keys (provider, api_key, metadata, rotations, created_at, updated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), 0, now(), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    metadata = excluded.metadata,
    rotations = provider_keys.rotations + 1,
    updated_at = now()
returning rotations;
`

const QListProviderKeys = `--sql 7f29a0c4-d813-4e5b-9a61-b4c8e2f07d35
select provider,
       right(api_key, 4) as key_suffix,
       coalesce(metadata ->> 'source', '') as source,
       rotations,
       updated_at
from provider_keys
order by provider;
`
