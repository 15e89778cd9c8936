package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xiaot623/pokr/internal/domain"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var _ Store = (*SQLStore)(nil)

// NewSQLiteStore creates a store backed by the cgo SQLite driver.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	return NewStore(DriverSQLite3, dsn)
}

// NewStore opens a store for the given driver and runs migrations.
func NewStore(driver, dsn string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, d.connectDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer at a time and an in-memory database exists per
	// connection, so the pool is a single connection. Queries must not nest.
	if d.isSQLite() {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLStore{db: db, dialect: d}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLStore) migrate() error {
	pk := s.dialect.primaryKey
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id ` + pk + `,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			facilitator_name TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			current_story_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			id ` + pk + `,
			session_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			joined_at BIGINT NOT NULL,
			last_activity BIGINT NOT NULL,
			UNIQUE (session_id, name),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS stories (
			id ` + pk + `,
			session_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			final_estimate INTEGER,
			status TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stories_session ON stories(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id ` + pk + `,
			participant_id BIGINT NOT NULL,
			story_id BIGINT NOT NULL,
			estimate INTEGER NOT NULL,
			submitted_at BIGINT NOT NULL,
			UNIQUE (participant_id, story_id),
			FOREIGN KEY (participant_id) REFERENCES participants(id),
			FOREIGN KEY (story_id) REFERENCES stories(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_story ON votes(story_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id and maps unique violations to ErrAlreadyExists.
func (s *SQLStore) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.queryRow(ctx, query+` RETURNING id`, args...).Scan(&id)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return id, err
}

func (s *SQLStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateSession creates a new session and assigns its ID.
func (s *SQLStore) CreateSession(ctx context.Context, session *domain.Session) error {
	id, err := s.insert(ctx,
		`INSERT INTO sessions (code, name, facilitator_name, status, created_at, current_story_id) VALUES (?, ?, ?, ?, ?, ?)`,
		session.Code, session.Name, session.FacilitatorName, string(session.Status), toMillis(session.CreatedAt), nullableID(session.CurrentStoryID))
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

const sessionColumns = `id, code, name, facilitator_name, status, created_at, current_story_id`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var session domain.Session
	var status string
	var createdAt int64
	var currentStoryID sql.NullInt64
	if err := row.Scan(&session.ID, &session.Code, &session.Name, &session.FacilitatorName, &status, &createdAt, &currentStoryID); err != nil {
		return nil, err
	}
	session.Status = domain.SessionStatus(status)
	session.CreatedAt = fromMillis(createdAt)
	if currentStoryID.Valid {
		id := currentStoryID.Int64
		session.CurrentStoryID = &id
	}
	return &session, nil
}

// GetSession retrieves a session by ID.
func (s *SQLStore) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	session, err := scanSession(s.queryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return session, err
}

// GetSessionByCode retrieves a session by its share code.
func (s *SQLStore) GetSessionByCode(ctx context.Context, code string) (*domain.Session, error) {
	session, err := scanSession(s.queryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE code = ?`, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return session, err
}

// SessionCodeExists reports whether a session already uses code.
func (s *SQLStore) SessionCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := s.count(ctx, `SELECT COUNT(1) FROM sessions WHERE code = ?`, code)
	return n > 0, err
}

// UpdateSession updates the mutable fields of a session.
func (s *SQLStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.exec(ctx,
		`UPDATE sessions SET name = ?, facilitator_name = ?, status = ?, current_story_id = ? WHERE id = ?`,
		session.Name, session.FacilitatorName, string(session.Status), nullableID(session.CurrentStoryID), session.ID)
	return err
}

// CreateParticipant creates a new participant and assigns its ID.
func (s *SQLStore) CreateParticipant(ctx context.Context, participant *domain.Participant) error {
	id, err := s.insert(ctx,
		`INSERT INTO participants (session_id, name, joined_at, last_activity) VALUES (?, ?, ?, ?)`,
		participant.SessionID, participant.Name, toMillis(participant.JoinedAt), toMillis(participant.LastActivity))
	if err != nil {
		return err
	}
	participant.ID = id
	return nil
}

const participantColumns = `p.id, p.session_id, p.name, p.joined_at, p.last_activity`

func scanParticipant(row interface{ Scan(...any) error }) (*domain.Participant, error) {
	var p domain.Participant
	var joinedAt, lastActivity int64
	if err := row.Scan(&p.ID, &p.SessionID, &p.Name, &joinedAt, &lastActivity); err != nil {
		return nil, err
	}
	p.JoinedAt = fromMillis(joinedAt)
	p.LastActivity = fromMillis(lastActivity)
	return &p, nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLStore) GetParticipant(ctx context.Context, id int64) (*domain.Participant, error) {
	p, err := scanParticipant(s.queryRow(ctx, `SELECT `+participantColumns+` FROM participants p WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetParticipantByName retrieves a participant by exact name within a session.
func (s *SQLStore) GetParticipantByName(ctx context.Context, sessionCode, name string) (*domain.Participant, error) {
	p, err := scanParticipant(s.queryRow(ctx,
		`SELECT `+participantColumns+` FROM participants p JOIN sessions s ON s.id = p.session_id WHERE s.code = ? AND p.name = ?`,
		sessionCode, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ParticipantNameExists reports whether name is taken within a session.
func (s *SQLStore) ParticipantNameExists(ctx context.Context, sessionCode, name string) (bool, error) {
	n, err := s.count(ctx,
		`SELECT COUNT(1) FROM participants p JOIN sessions s ON s.id = p.session_id WHERE s.code = ? AND p.name = ?`,
		sessionCode, name)
	return n > 0, err
}

// CountParticipants counts the participants of a session.
func (s *SQLStore) CountParticipants(ctx context.Context, sessionCode string) (int, error) {
	return s.count(ctx,
		`SELECT COUNT(1) FROM participants p JOIN sessions s ON s.id = p.session_id WHERE s.code = ?`,
		sessionCode)
}

// ListParticipants lists the participants of a session in join order.
func (s *SQLStore) ListParticipants(ctx context.Context, sessionID int64) ([]domain.Participant, error) {
	rows, err := s.query(ctx,
		`SELECT `+participantColumns+` FROM participants p WHERE p.session_id = ? ORDER BY p.joined_at ASC, p.id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// UpdateParticipantActivity sets the last activity time of a participant.
func (s *SQLStore) UpdateParticipantActivity(ctx context.Context, id int64, at time.Time) error {
	_, err := s.exec(ctx, `UPDATE participants SET last_activity = ? WHERE id = ?`, toMillis(at), id)
	return err
}

// CreateStory creates a new story and assigns its ID.
func (s *SQLStore) CreateStory(ctx context.Context, story *domain.Story) error {
	id, err := s.insert(ctx,
		`INSERT INTO stories (session_id, title, final_estimate, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		story.SessionID, story.Title, nullableInt(story.FinalEstimate), string(story.Status), toMillis(story.CreatedAt))
	if err != nil {
		return err
	}
	story.ID = id
	return nil
}

const storyColumns = `id, session_id, title, final_estimate, status, created_at`

func scanStory(row interface{ Scan(...any) error }) (*domain.Story, error) {
	var story domain.Story
	var finalEstimate sql.NullInt64
	var status string
	var createdAt int64
	if err := row.Scan(&story.ID, &story.SessionID, &story.Title, &finalEstimate, &status, &createdAt); err != nil {
		return nil, err
	}
	if finalEstimate.Valid {
		v := int(finalEstimate.Int64)
		story.FinalEstimate = &v
	}
	story.Status = domain.StoryStatus(status)
	story.CreatedAt = fromMillis(createdAt)
	return &story, nil
}

// GetStory retrieves a story by ID.
func (s *SQLStore) GetStory(ctx context.Context, id int64) (*domain.Story, error) {
	story, err := scanStory(s.queryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return story, err
}

// UpdateStory updates the mutable fields of a story.
func (s *SQLStore) UpdateStory(ctx context.Context, story *domain.Story) error {
	_, err := s.exec(ctx,
		`UPDATE stories SET title = ?, final_estimate = ?, status = ? WHERE id = ?`,
		story.Title, nullableInt(story.FinalEstimate), string(story.Status), story.ID)
	return err
}

// ListStories lists the stories of a session in creation order.
func (s *SQLStore) ListStories(ctx context.Context, sessionID int64) ([]domain.Story, error) {
	rows, err := s.query(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	return stories, rows.Err()
}

// CountEstimatedStories counts the finalized stories of a session.
func (s *SQLStore) CountEstimatedStories(ctx context.Context, sessionCode string) (int, error) {
	return s.count(ctx,
		`SELECT COUNT(1) FROM stories st JOIN sessions s ON s.id = st.session_id WHERE s.code = ? AND st.status = ?`,
		sessionCode, string(domain.StoryStatusEstimated))
}

// CreateVote creates a new vote and assigns its ID.
func (s *SQLStore) CreateVote(ctx context.Context, vote *domain.Vote) error {
	id, err := s.insert(ctx,
		`INSERT INTO votes (participant_id, story_id, estimate, submitted_at) VALUES (?, ?, ?, ?)`,
		vote.ParticipantID, vote.StoryID, vote.Estimate, toMillis(vote.SubmittedAt))
	if err != nil {
		return err
	}
	vote.ID = id
	return nil
}

const voteColumns = `v.id, v.participant_id, v.story_id, v.estimate, v.submitted_at, p.name`

func scanVote(row interface{ Scan(...any) error }) (*domain.Vote, error) {
	var vote domain.Vote
	var submittedAt int64
	if err := row.Scan(&vote.ID, &vote.ParticipantID, &vote.StoryID, &vote.Estimate, &submittedAt, &vote.ParticipantName); err != nil {
		return nil, err
	}
	vote.SubmittedAt = fromMillis(submittedAt)
	return &vote, nil
}

// GetVote retrieves a vote by ID.
func (s *SQLStore) GetVote(ctx context.Context, id int64) (*domain.Vote, error) {
	vote, err := scanVote(s.queryRow(ctx,
		`SELECT `+voteColumns+` FROM votes v JOIN participants p ON p.id = v.participant_id WHERE v.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return vote, err
}

// GetVoteByParticipantAndStory retrieves the vote a participant cast for a story.
func (s *SQLStore) GetVoteByParticipantAndStory(ctx context.Context, participantID, storyID int64) (*domain.Vote, error) {
	vote, err := scanVote(s.queryRow(ctx,
		`SELECT `+voteColumns+` FROM votes v JOIN participants p ON p.id = v.participant_id WHERE v.participant_id = ? AND v.story_id = ?`,
		participantID, storyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return vote, err
}

// UpdateVote overwrites the estimate and submission time of a vote.
func (s *SQLStore) UpdateVote(ctx context.Context, vote *domain.Vote) error {
	_, err := s.exec(ctx,
		`UPDATE votes SET estimate = ?, submitted_at = ? WHERE id = ?`,
		vote.Estimate, toMillis(vote.SubmittedAt), vote.ID)
	return err
}

// ListVotesByStory lists the votes cast for a story with their participant names.
func (s *SQLStore) ListVotesByStory(ctx context.Context, storyID int64) ([]domain.Vote, error) {
	rows, err := s.query(ctx,
		`SELECT `+voteColumns+` FROM votes v JOIN participants p ON p.id = v.participant_id WHERE v.story_id = ? ORDER BY v.submitted_at ASC, v.id ASC`,
		storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, *vote)
	}
	return votes, rows.Err()
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
