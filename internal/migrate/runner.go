package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 内置迁移脚本
//
//go:embed sql/*.sql
var embedded embed.FS

// Embedded 内置迁移脚本所在文件系统
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Runner 迁移执行器；FS 为空时读取 Dir 目录
type Runner struct {
	Dir string
	FS  fs.FS
}

// EnsureTable 保证 schema_migrations 表存在
func EnsureTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version BIGINT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`)
	return err
}

// AppliedVersions 已应用版本
func AppliedVersions(ctx context.Context, db *pgxpool.Pool) (map[int64]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	res := make(map[int64]bool, len(versions))
	for _, v := range versions {
		res[v] = true
	}
	return res, nil
}

type migrationFile struct {
	Version int64
	Path    string
}

func (r Runner) fsys() (fs.FS, error) {
	if r.FS != nil {
		return r.FS, nil
	}
	if r.Dir == "" {
		return nil, errors.New("migrations dir is empty")
	}
	return os.DirFS(r.Dir), nil
}

// discoverUpMigrations 扫描 *_up.sql，文件名数字前缀为版本
func discoverUpMigrations(fsys fs.FS) ([]migrationFile, error) {
	var files []migrationFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := path.Base(p)
		if d.IsDir() || !strings.HasSuffix(name, "_up.sql") {
			return nil
		}
		prefix, _, _ := strings.Cut(name, "_")
		ver, err := strconv.ParseInt(prefix, 10, 64)
		if err != nil {
			return nil
		}
		files = append(files, migrationFile{Version: ver, Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	for i := 1; i < len(files); i++ {
		if files[i].Version == files[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", files[i].Version)
		}
	}
	return files, nil
}

// Up 执行未应用的向上迁移，每个版本一个事务；返回本次应用的版本
func (r Runner) Up(ctx context.Context, db *pgxpool.Pool) ([]int64, error) {
	fsys, err := r.fsys()
	if err != nil {
		return nil, err
	}
	ups, err := discoverUpMigrations(fsys)
	if err != nil {
		return nil, err
	}
	if err := EnsureTable(ctx, db); err != nil {
		return nil, err
	}
	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}

	var done []int64
	for _, m := range ups {
		if applied[m.Version] {
			continue
		}
		content, err := fs.ReadFile(fsys, m.Path)
		if err != nil {
			return done, err
		}
		err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, m.Version)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("migration %s: %w", m.Path, err)
		}
		done = append(done, m.Version)
	}
	return done, nil
}
