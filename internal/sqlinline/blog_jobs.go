package sqlinline

const QInsertBlogJob = `--sql 4206c1a9-38a5-464c-85de-7043f03631b6
insert into blog_jobs (tracking_id, topic, settings, status, progress, message, created_at, updated_at)
values ($1::text, $2::text, $3::jsonb, $4::text, $5::int, $6::text, $7::timestamptz, $7::timestamptz);
`

const QSelectBlogJob = `--sql ba850379-87e9-425c-95f1-46fcd52add18
select tracking_id, topic, settings, status, progress, message, title, content, word_count, images, rating,
       coalesce(error, ''), created_at, updated_at
from blog_jobs
where tracking_id = $1::text
limit 1;
`

const QMergeBlogJob = `--sql 7f0a20fd-b3c5-48cc-9654-d9c10ef26028
update blog_jobs set
    status = coalesce($2::text, status),
    progress = coalesce($3::int, progress),
    message = coalesce($4::text, message),
    title = coalesce($5::text, title),
    content = coalesce($6::text, content),
    word_count = coalesce($7::int, word_count),
    images = coalesce($8::jsonb, images),
    rating = coalesce($9::jsonb, rating),
    error = coalesce($10::text, error),
    updated_at = now()
where tracking_id = $1::text
  and status not in ('completed', 'failed');
`

const QListBlogJobs = `--sql c650763d-fadf-4253-ae9b-b2627b58f9ca
select tracking_id, topic, settings, status, progress, message, title, content, word_count, images, rating,
       coalesce(error, ''), created_at, updated_at
from blog_jobs
order by created_at desc;
`

const QDeleteBlogJob = `--sql 9fbd4b56-a871-4627-bd6c-64461d658201
delete from blog_jobs
where tracking_id = $1::text;
`
