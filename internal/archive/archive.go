// Package archive provides SQLite storage for fetched samples.
//
// The dashboard itself keeps everything in memory; the archive backs
// the sp inspection tool, which snapshots a fetch into SQLite so slices
// of it can be queried offline.
package archive

import (
	"database/sql"
	"fmt"
	"math"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/subpulse/internal/catalog"
	"github.com/abelbrown/subpulse/internal/stats"
)

// Archive handles SQLite storage. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Archive struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Row is one stored sample, flattened for querying.
type Row struct {
	Timestamp int64
	Metric    stats.Metric
	PostID    string // empty for aggregate metrics
	Value     float64
	Rank      float64 // NaN when unranked
}

// Ranked reports whether the row carries a front-page rank.
func (r Row) Ranked() bool {
	return stats.ValidRank(r.Rank)
}

// Open creates a new Archive at the given path. ":memory:" keeps the
// whole archive in RAM, which is how sp uses it.
func Open(dbPath string) (*Archive, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return a, nil
}

func (a *Archive) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS samples (
		ts INTEGER NOT NULL,
		metric TEXT NOT NULL,
		post_id TEXT NOT NULL DEFAULT '',
		value REAL NOT NULL,
		rank REAL,
		PRIMARY KEY (ts, metric, post_id)
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		author TEXT,
		flair TEXT,
		post_time INTEGER NOT NULL,
		title TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_samples_metric ON samples(metric, ts);
	CREATE INDEX IF NOT EXISTS idx_posts_time ON posts(post_time);
	`

	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

// SaveScalar stores one aggregate metric's samples, returning the count
// of newly inserted rows. Re-saving the same timestamps is a no-op.
func (a *Archive) SaveScalar(metric stats.Metric, rec stats.ScalarRecord) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stmt, err := a.db.Prepare(`
		INSERT OR IGNORE INTO samples (ts, metric, post_id, value, rank)
		VALUES (?, ?, '', ?, NULL)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for ts, v := range rec {
		result, err := stmt.Exec(ts, string(metric), v)
		if err != nil {
			return newCount, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return newCount, err
		}
		if affected > 0 {
			newCount++
		}
	}
	return newCount, nil
}

// SaveSeries stores one per-post metric's samples with their ranks,
// returning the count of newly inserted rows.
func (a *Archive) SaveSeries(metric stats.Metric, rec stats.SeriesRecord, ranks stats.RankTable) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stmt, err := a.db.Prepare(`
		INSERT OR IGNORE INTO samples (ts, metric, post_id, value, rank)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for ts, sample := range rec {
		for i, id := range sample.IDs {
			rank := sql.NullFloat64{}
			if byID, ok := ranks[ts]; ok {
				if r, ok := byID[id]; ok && stats.ValidRank(r) {
					rank = sql.NullFloat64{Float64: r, Valid: true}
				}
			}
			result, err := stmt.Exec(ts, string(metric), id, sample.Values[i], rank)
			if err != nil {
				return newCount, err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return newCount, err
			}
			if affected > 0 {
				newCount++
			}
		}
	}
	return newCount, nil
}

// SavePosts stores post metadata, returning the count of new posts.
func (a *Archive) SavePosts(posts map[string]catalog.Post) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stmt, err := a.db.Prepare(`
		INSERT OR IGNORE INTO posts (id, author, flair, post_time, title)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for id, p := range posts {
		result, err := stmt.Exec(id, p.Author, p.Flair, p.PostTime, p.Title)
		if err != nil {
			return newCount, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return newCount, err
		}
		if affected > 0 {
			newCount++
		}
	}
	return newCount, nil
}

// Rows retrieves one metric's samples in ascending time order,
// optionally restricted to a single post id.
func (a *Archive) Rows(metric stats.Metric, postID string) ([]Row, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	query := `
		SELECT ts, metric, post_id, value, rank
		FROM samples
		WHERE metric = ?
		ORDER BY ts ASC, post_id ASC
	`
	args := []any{string(metric)}
	if postID != "" {
		query = `
			SELECT ts, metric, post_id, value, rank
			FROM samples
			WHERE metric = ? AND post_id = ?
			ORDER BY ts ASC
		`
		args = append(args, postID)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var metricStr string
		var rank sql.NullFloat64
		if err := rows.Scan(&r.Timestamp, &metricStr, &r.PostID, &r.Value, &rank); err != nil {
			return nil, err
		}
		r.Metric = stats.Metric(metricStr)
		r.Rank = math.NaN()
		if rank.Valid {
			r.Rank = rank.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Posts retrieves stored posts ordered by post time.
func (a *Archive) Posts() ([]catalog.Post, []string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.db.Query(`
		SELECT id, author, flair, post_time, title
		FROM posts
		ORDER BY post_time ASC
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var posts []catalog.Post
	var ids []string
	for rows.Next() {
		var id string
		var p catalog.Post
		if err := rows.Scan(&id, &p.Author, &p.Flair, &p.PostTime, &p.Title); err != nil {
			return nil, nil, err
		}
		posts = append(posts, p)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return posts, ids, nil
}

// MetricStats summarizes what the archive holds for one metric.
type MetricStats struct {
	Samples   int64
	Posts     int64
	FirstTime int64
	LastTime  int64
}

// Stats returns per-metric sample counts and time ranges.
func (a *Archive) Stats() (map[stats.Metric]MetricStats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.db.Query(`
		SELECT metric,
			COUNT(*),
			COUNT(DISTINCT post_id),
			MIN(ts),
			MAX(ts)
		FROM samples
		GROUP BY metric
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[stats.Metric]MetricStats)
	for rows.Next() {
		var metricStr string
		var ms MetricStats
		if err := rows.Scan(&metricStr, &ms.Samples, &ms.Posts, &ms.FirstTime, &ms.LastTime); err != nil {
			return nil, err
		}
		out[stats.Metric(metricStr)] = ms
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
