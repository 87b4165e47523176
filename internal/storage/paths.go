package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"eventoensina-backend/internal/models"

	"github.com/gosimple/slug"
)

// ArtifactKind selects the per-participant subfolder an artifact is stored in.
type ArtifactKind int

const (
	ArtifactProfilePhoto ArtifactKind = iota
	ArtifactCertificate
	ArtifactGeneric
)

func (k ArtifactKind) folder() string {
	switch k {
	case ArtifactProfilePhoto:
		return "foto_perfil"
	case ArtifactCertificate:
		return "certificados"
	default:
		return "arquivos"
	}
}

// Media resolves artifact locations under a single media root. Directory
// layout is deterministic from participant identity so repeated generation
// runs land on the same paths.
type Media struct {
	Root string
}

// ParticipantBase returns the participant's base directory relative to the
// media root, preferring the persisted BaseDir so paths stay stable across
// username or institution renames.
func (m *Media) ParticipantBase(p *models.Participant) string {
	if p.BaseDir != "" {
		return p.BaseDir
	}
	inst := p.Institution
	if inst == "" {
		inst = "sem_instituicao"
	}
	return filepath.Join("usuarios", fmt.Sprintf("%s_%s", p.Username, slug.Make(inst)))
}

// ArtifactDir returns the absolute directory for one artifact kind, creating
// it if missing.
func (m *Media) ArtifactDir(p *models.Participant, kind ArtifactKind) (string, error) {
	dir := filepath.Join(m.Root, m.ParticipantBase(p), kind.folder())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	return dir, nil
}

// WriteArtifact writes a fully constructed buffer to dir/name. Callers build
// the complete artifact in memory first so a failed write never leaves a
// partially written file referenced by a record.
func (m *Media) WriteArtifact(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	return path, nil
}

// Exists reports whether an artifact path is reachable on storage.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
