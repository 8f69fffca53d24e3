package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

const downloadTimeout = 60 * time.Second

// MediaRepo downloads generated images into a local directory and records
// them in Postgres. Public URLs are served under <siteURL>/media/.
type MediaRepo struct {
	pool    *pgxpool.Pool
	dir     string
	siteURL string
	http    *http.Client
}

var _ ports.MediaStore = (*MediaRepo)(nil)

// NewMediaRepo wires the repository over the storage directory.
func NewMediaRepo(pool *pgxpool.Pool, dir, siteURL string) *MediaRepo {
	return &MediaRepo{
		pool:    pool,
		dir:     dir,
		siteURL: strings.TrimRight(siteURL, "/"),
		http:    &http.Client{Timeout: downloadTimeout},
	}
}

// Upload fetches the image from its source URL, stores the file and inserts
// the media row. The returned id is the media handle.
func (r *MediaRepo) Upload(ctx context.Context, upload ports.MediaUpload) (int64, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create media directory: %w", err)
	}

	// Prefix with a short random id so repeated titles never collide.
	filename := uuid.NewString()[:8] + "-" + upload.Filename
	path := filepath.Join(r.dir, filename)

	if err := r.download(ctx, upload.SourceURL, path); err != nil {
		return 0, err
	}

	query, args, err := builder.
		Insert("media").
		Columns("filename", "title", "alt", "caption", "path").
		Values(filename, upload.Title, upload.Alt, upload.Caption, path).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build media insert: %w", err)
	}

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("insert media row: %w", err)
	}
	return id, nil
}

// FileURL returns the public URL of a stored image.
func (r *MediaRepo) FileURL(ctx context.Context, mediaID int64) (string, error) {
	query, args, err := builder.
		Select("filename").
		From("media").
		Where(sq.Eq{"id": mediaID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build media lookup: %w", err)
	}

	var filename string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&filename); err != nil {
		return "", fmt.Errorf("lookup media %d: %w", mediaID, err)
	}
	return r.siteURL + "/media/" + filename, nil
}

func (r *MediaRepo) download(ctx context.Context, sourceURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return domain.StageFailure("media", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Stagef("media", domain.ErrProvider, "download status %d", resp.StatusCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(path)
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}
