package repository

const upsertBotUserSQL = `
INSERT INTO bot_users (telegram_id, user_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (telegram_id) DO UPDATE
SET user_id = EXCLUDED.user_id,
    role = EXCLUDED.role,
    updated_at = now()
`

const releaseUserIDSQL = `DELETE FROM bot_users WHERE user_id = $1 AND telegram_id <> $2`

const deleteBotUserSQL = `DELETE FROM bot_users WHERE telegram_id = $1`

const selectTelegramIDSQL = `SELECT telegram_id FROM bot_users WHERE user_id = $1`

const selectManagersSQL = `SELECT telegram_id FROM bot_users WHERE role = $1 ORDER BY telegram_id`

const selectLanguageSQL = `SELECT language FROM bot_users WHERE telegram_id = $1`

const updateLanguageSQL = `UPDATE bot_users SET language = $2, updated_at = now() WHERE telegram_id = $1`

const selectDraftsSQL = `SELECT projects FROM project_drafts WHERE owner_id = $1`

const ensureDraftsSQL = `
INSERT INTO project_drafts (owner_id, projects)
VALUES ($1, '[]')
ON CONFLICT (owner_id) DO NOTHING
`

const selectDraftsForUpdateSQL = `SELECT projects FROM project_drafts WHERE owner_id = $1 FOR UPDATE`

const upsertDraftsSQL = `
INSERT INTO project_drafts (owner_id, projects, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (owner_id) DO UPDATE
SET projects = EXCLUDED.projects,
    updated_at = EXCLUDED.updated_at
`

const insertChangeSQL = `
INSERT INTO project_change_history (id, project_id, author_id, patch, created_at)
VALUES ($1, $2, $3, $4, $5)
`

const selectChangesSQL = `
SELECT id, project_id, author_id, patch, created_at
FROM project_change_history
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2
`
