package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

type snapshot struct {
	tags  []models.Tag
	users []models.User
	posts []models.Post
	pages []models.Page
}

// Export writes the whole blog to w as a zip archive. All rows are read from one
// consistent snapshot, so writes racing with the export are either fully in or out.
func Export(ctx context.Context, st *store.Store, w io.Writer) error {
	var snap snapshot
	err := st.Snapshot(ctx, func(tx *store.Store) error {
		var err error
		if snap.tags, err = tx.Tags().All(ctx); err != nil {
			return err
		}
		if snap.users, err = tx.Users().All(ctx); err != nil {
			return err
		}
		if snap.posts, err = tx.Posts().All(ctx); err != nil {
			return err
		}
		snap.pages, err = tx.Pages().All(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	zw := zip.NewWriter(w)
	if err := snap.write(zw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func (s *snapshot) write(zw *zip.Writer) error {
	if err := writeYAML(zw, entryName("info.yaml"), Info{Version: Version}); err != nil {
		return err
	}

	postIDs := make([]uint, 0, len(s.posts))
	for _, p := range s.posts {
		postIDs = append(postIDs, p.ID)
		dir := entryName("posts", strconv.FormatUint(uint64(p.ID), 10))
		if err := writeYAML(zw, path.Join(dir, recordName), postRecord(p)); err != nil {
			return err
		}
		if err := writeFiles(zw, dir, p.Files); err != nil {
			return err
		}
	}
	if err := writeYAML(zw, entryName("posts", recordName), postIDs); err != nil {
		return err
	}

	pageIDs := make([]uint, 0, len(s.pages))
	for _, p := range s.pages {
		pageIDs = append(pageIDs, p.ID)
		dir := entryName("pages", strconv.FormatUint(uint64(p.ID), 10))
		if err := writeYAML(zw, path.Join(dir, recordName), pageRecord(p)); err != nil {
			return err
		}
		if err := writeFiles(zw, dir, p.Files); err != nil {
			return err
		}
	}
	if err := writeYAML(zw, entryName("pages", recordName), pageIDs); err != nil {
		return err
	}

	tags := make([]TagRecord, 0, len(s.tags))
	for _, t := range s.tags {
		tags = append(tags, tagRecord(t))
	}
	if err := writeYAML(zw, entryName("tags.yaml"), tags); err != nil {
		return err
	}

	users := make([]UserRecord, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, userRecord(u))
	}
	return writeYAML(zw, entryName("users.yaml"), users)
}

func writeYAML(zw *zip.Writer, name string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return writeEntry(zw, name, data)
}

// recordName holds the post or page record inside its directory.
const recordName = models.ReservedFileName

// entryName roots an archive path at "/".
func entryName(parts ...string) string {
	return "/" + path.Join(parts...)
}

func writeFiles(zw *zip.Writer, dir string, files []models.File) error {
	for _, f := range files {
		if f.Name == recordName {
			return fmt.Errorf("%w: attachment %s in %s would overwrite the record", ErrReservedName, f.Name, dir)
		}
		if err := writeEntry(zw, path.Join(dir, f.Name), f.Content); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
