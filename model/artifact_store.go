package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/leadrank/core"
)

// ErrArtifactNotFound 表示尚未持久化过任何产物。
var ErrArtifactNotFound = core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound, "model: no persisted artifact")

// ArtifactStore 持久化训练产物。
// Save 必须先完整写入新产物，再原子地把“最新”指针切到新版本；
// 写入失败时之前的产物保持可读。
type ArtifactStore interface {
	Latest(ctx context.Context) (*Artifact, error)
	Save(ctx context.Context, a *Artifact) error
}

// FileArtifactStore 把产物写成 <dir>/artifact-<version>.json，
// 并用 <dir>/LATEST 记录当前版本；两者都通过临时文件 + rename 写入。
type FileArtifactStore struct {
	Dir string
}

func NewFileArtifactStore(dir string) *FileArtifactStore {
	return &FileArtifactStore{Dir: dir}
}

const latestPointer = "LATEST"

func (s *FileArtifactStore) Save(ctx context.Context, a *Artifact) error {
	data, err := EncodeArtifact(a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	name := "artifact-" + a.Metadata.Version + ".json"
	if err := writeFileAtomic(filepath.Join(s.Dir, name), data); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.Dir, latestPointer), []byte(name))
}

func (s *FileArtifactStore) Latest(ctx context.Context) (*Artifact, error) {
	pointer, err := os.ReadFile(filepath.Join(s.Dir, latestPointer))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact pointer: %w", err)
	}
	name := filepath.Base(strings.TrimSpace(string(pointer)))
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return DecodeArtifact(data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// KVArtifactStore 把产物存进 core.Store（Redis / 内存），
// 先写 <prefix>:artifact:<version>，再更新 <prefix>:latest。
type KVArtifactStore struct {
	Store  core.Store
	Prefix string
}

func NewKVArtifactStore(s core.Store, prefix string) *KVArtifactStore {
	if prefix == "" {
		prefix = "leadrank:model"
	}
	return &KVArtifactStore{Store: s, Prefix: prefix}
}

func (s *KVArtifactStore) Save(ctx context.Context, a *Artifact) error {
	data, err := EncodeArtifact(a)
	if err != nil {
		return err
	}
	if err := s.Store.Set(ctx, s.Prefix+":artifact:"+a.Metadata.Version, data); err != nil {
		return fmt.Errorf("save artifact %s: %w", a.Metadata.Version, err)
	}
	if err := s.Store.Set(ctx, s.Prefix+":latest", []byte(a.Metadata.Version)); err != nil {
		return fmt.Errorf("publish artifact %s: %w", a.Metadata.Version, err)
	}
	return nil
}

func (s *KVArtifactStore) Latest(ctx context.Context) (*Artifact, error) {
	version, err := s.Store.Get(ctx, s.Prefix+":latest")
	if core.IsStoreNotFound(err) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact pointer: %w", err)
	}
	data, err := s.Store.Get(ctx, s.Prefix+":artifact:"+string(version))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", version, err)
	}
	return DecodeArtifact(data)
}

var (
	_ ArtifactStore = (*FileArtifactStore)(nil)
	_ ArtifactStore = (*KVArtifactStore)(nil)
)
