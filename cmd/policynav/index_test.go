package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/policynav/policynav/rag"
)

func TestWriteSeedCorpus(t *testing.T) {
	dir := t.TempDir()

	written, err := writeSeedCorpus(dir)
	require.NoError(t, err)
	assert.Equal(t, len(seedCorpus), written)

	for name := range seedCorpus {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "Title:")
	}
}

func TestWriteSeedCorpus_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()

	custom := filepath.Join(dir, "gdpr.txt")
	require.NoError(t, os.WriteFile(custom, []byte("local edits"), 0o644))

	written, err := writeSeedCorpus(dir)
	require.NoError(t, err)
	assert.Equal(t, len(seedCorpus)-1, written)

	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "local edits", string(data))
}

func TestCollectCorpusFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.json"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "d.TXT"), []byte("x"), 0o644))

	paths, err := collectCorpusFiles(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.md", "c.csv", "d.TXT"}, names)
}

func TestLoadCorpusFile_TitleOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "section230.txt")
	content := "Title: Section 230 Overview\n\nPlatform immunity for user content."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := loadCorpusFile(path)
	require.NoError(t, err)

	assert.Equal(t, "doc-section230", doc.ID)
	assert.Equal(t, "Section 230 Overview", doc.Metadata["title"])
	assert.Equal(t, "section230.txt", doc.Metadata["source"])
	assert.Equal(t, "Platform immunity for user content.", doc.Content)
}

func TestLoadCorpusFile_NoTitleUsesStem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hipaa-notes.md")
	require.NoError(t, os.WriteFile(path, []byte("Security rule safeguards."), 0o644))

	doc, err := loadCorpusFile(path)
	require.NoError(t, err)

	assert.Equal(t, "doc-hipaa-notes", doc.ID)
	assert.Equal(t, "hipaa-notes", doc.Metadata["title"])
	assert.Equal(t, "Security rule safeguards.", doc.Content)
}

func TestLoadCorpus_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	_, err := writeSeedCorpus(dir)
	require.NoError(t, err)

	// 空文件会被过滤
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("  \n"), 0o644))

	docs, err := loadCorpus(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, len(seedCorpus))

	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID] = true
		assert.NotEmpty(t, d.Content)
		assert.NotEmpty(t, d.Metadata["title"])
	}
	assert.True(t, ids["doc-section230"])
	assert.True(t, ids["doc-eo14067"])
	assert.True(t, ids["doc-gdpr"])
	assert.True(t, ids["doc-hipaa"])
}

func TestLoadCorpus_IndexesIntoStore(t *testing.T) {
	dir := t.TempDir()
	_, err := writeSeedCorpus(dir)
	require.NoError(t, err)

	docs, err := loadCorpus(context.Background(), dir)
	require.NoError(t, err)

	index := rag.NewIndex(
		rag.NewHashEmbedder(64),
		rag.NewInMemoryVectorStore(zap.NewNop()),
		nil,
		zap.NewNop(),
	)

	stored, err := index.AddBatch(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, len(docs), stored)

	results, err := index.Search(context.Background(), "data protection breach notification", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestLoadCorpus_MissingDirFails(t *testing.T) {
	_, err := loadCorpus(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
