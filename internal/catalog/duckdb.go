// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/upnext/internal/metrics"
	"github.com/tomtom215/upnext/internal/models"
)

// ErrVideoNotFound is returned by GetVideo for an unknown id.
var ErrVideoNotFound = errors.New("video not found")

// Video visibility and approval values treated as eligible.
const (
	VisibilityPublic = "public"
	ApprovalApproved = "approved"
)

// Config configures the DuckDB catalog.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string `koanf:"path"`

	// Threads is the DuckDB worker thread count. 0 uses the CPU count.
	Threads int `koanf:"threads" validate:"min=0"`

	// MaxMemory caps DuckDB memory (e.g. "512MB").
	MaxMemory string `koanf:"max_memory"`

	// QueryTimeout bounds every catalog query.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// DefaultConfig returns an in-memory catalog configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxMemory:    "512MB",
		QueryTimeout: 10 * time.Second,
	}
}

// DuckDB serves the video catalog from a DuckDB database.
// It implements recommend.Catalog.
type DuckDB struct {
	conn    *sql.DB
	cfg     *Config
	logger  zerolog.Logger
	timeout time.Duration
}

// videoColumns is the projection scanned by scanVideos, in order.
const videoColumns = `
	v.id,
	COALESCE(v.title, ''),
	COALESCE(v.thumbnail_url, ''),
	COALESCE(v.media_url, ''),
	v.duration_seconds,
	v.view_count,
	COALESCE(v.channel_id, ''),
	COALESCE(v.channel_name, ''),
	COALESCE(v.category, ''),
	COALESCE(v.owner_id, '')`

// eligibleFilter restricts a query to videos anyone may be recommended.
const eligibleFilter = `v.visibility = 'public' AND v.approval_status = 'approved' AND NOT v.hidden`

// Open connects to DuckDB and creates the schema if needed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg *Config, logger zerolog.Logger) (*DuckDB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		// 0750 per gosec G301
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
		}
	}

	params := []string{
		fmt.Sprintf("threads=%d", threads),
		"autoinstall_known_extensions=false",
		"autoload_known_extensions=false",
	}
	if cfg.MaxMemory != "" {
		params = append(params, "max_memory="+cfg.MaxMemory)
	}
	if cfg.Path != "" {
		params = append(params, "access_mode=read_write")
	}
	connStr := path + "?" + strings.Join(params, "&")

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	db := &DuckDB{
		conn:    conn,
		cfg:     cfg,
		logger:  logger.With().Str("component", "catalog").Logger(),
		timeout: timeout,
	}

	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.createSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	db.logger.Info().Str("path", path).Int("threads", threads).Msg("catalog opened")
	return db, nil
}

// Close closes the database.
func (db *DuckDB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection.
func (db *DuckDB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DuckDB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			thumbnail_url VARCHAR,
			media_url VARCHAR,
			duration_seconds INTEGER,
			view_count BIGINT,
			channel_id VARCHAR,
			channel_name VARCHAR,
			category VARCHAR,
			owner_id VARCHAR,
			visibility VARCHAR NOT NULL DEFAULT 'public',
			approval_status VARCHAR NOT NULL DEFAULT 'approved',
			hidden BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS playlist_items (
			playlist_id VARCHAR NOT NULL,
			video_id VARCHAR NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, video_id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			banned BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_channel ON videos(channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_view_count ON videos(view_count)`,
	}

	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// observe records a query's duration and outcome.
func (db *DuckDB) observe(query string, start time.Time, err error) {
	metrics.RecordCatalogQuery(query, time.Since(start), err)
	if err != nil {
		db.logger.Debug().Err(err).Str("query", query).Msg("catalog query failed")
	}
}

// QueryEligibleVideos returns public, approved, visible videos not in
// exclude, most viewed first.
func (db *DuckDB) QueryEligibleVideos(ctx context.Context, exclude map[string]struct{}, limit int) (out []models.VideoItem, err error) {
	start := time.Now()
	defer func() { db.observe("eligible", start, err) }()

	if limit <= 0 {
		return []models.VideoItem{}, nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(exclude)+1)
	)
	sb.WriteString("SELECT ")
	sb.WriteString(videoColumns)
	sb.WriteString(" FROM videos v WHERE ")
	sb.WriteString(eligibleFilter)
	if len(exclude) > 0 {
		sb.WriteString(" AND v.id NOT IN (")
		i := 0
		for id := range exclude {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, id)
			i++
		}
		sb.WriteString(")")
	}
	sb.WriteString(" ORDER BY v.view_count DESC NULLS LAST, v.id LIMIT ?")
	args = append(args, limit)

	return db.queryVideos(ctx, sb.String(), args...)
}

// QueryPlaylistVideos returns a playlist's videos in stored position order.
func (db *DuckDB) QueryPlaylistVideos(ctx context.Context, playlistID string) (out []models.VideoItem, err error) {
	start := time.Now()
	defer func() { db.observe("playlist", start, err) }()

	query := `SELECT ` + videoColumns + `
		FROM playlist_items p
		JOIN videos v ON v.id = p.video_id
		WHERE p.playlist_id = ?
		ORDER BY p.position, v.id`
	return db.queryVideos(ctx, query, playlistID)
}

// QueryChannelVideos returns a channel's eligible videos newest first,
// skipping excludeID.
func (db *DuckDB) QueryChannelVideos(ctx context.Context, channelID, excludeID string, limit int) (out []models.VideoItem, err error) {
	start := time.Now()
	defer func() { db.observe("channel", start, err) }()

	if limit <= 0 {
		return []models.VideoItem{}, nil
	}
	query := `SELECT ` + videoColumns + `
		FROM videos v
		WHERE v.channel_id = ? AND v.id <> ? AND ` + eligibleFilter + `
		ORDER BY v.created_at DESC, v.id
		LIMIT ?`
	return db.queryVideos(ctx, query, channelID, excludeID, limit)
}

// QueryBannedUserIDs returns the ids of banned users.
func (db *DuckDB) QueryBannedUserIDs(ctx context.Context) (out map[string]struct{}, err error) {
	start := time.Now()
	defer func() { db.observe("banned", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM users WHERE banned`)
	if err != nil {
		return nil, fmt.Errorf("query banned users: %w", err)
	}
	defer rows.Close()

	banned := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan banned user: %w", err)
		}
		banned[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banned users: %w", err)
	}
	return banned, nil
}

// GetVideo returns a single video regardless of visibility.
func (db *DuckDB) GetVideo(ctx context.Context, id string) (out *models.VideoItem, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrVideoNotFound) {
			db.observe("get", start, nil)
			return
		}
		db.observe("get", start, err)
	}()

	videos, err := db.queryVideos(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}
	return &videos[0], nil
}

func (db *DuckDB) queryVideos(ctx context.Context, query string, args ...any) ([]models.VideoItem, error) {
	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.VideoItem, 0)
	for rows.Next() {
		var (
			v        models.VideoItem
			duration sql.NullInt64
			views    sql.NullInt64
		)
		if err := rows.Scan(
			&v.ID, &v.Title, &v.ThumbnailURL, &v.MediaURL,
			&duration, &views,
			&v.ChannelID, &v.ChannelName, &v.Category, &v.OwnerID,
		); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		if duration.Valid {
			d := int(duration.Int64)
			v.DurationSeconds = &d
		}
		if views.Valid {
			n := views.Int64
			v.ViewCount = &n
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}
