package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator(t *testing.T) {
	m := NewMockGeneratorWithBatch(SampleBatch())

	batch, err := m.GenerateFlashcards(context.Background(), "cells")
	require.NoError(t, err)
	assert.Len(t, batch, domain.BatchSize)
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, []string{"cells"}, m.GenerateFlashcardsCalls.Texts)

	boom := errors.New("boom")
	_, err = NewMockGeneratorWithError(boom).GenerateFlashcards(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestMockFileRecordStore(t *testing.T) {
	m := NewMockFileRecordStore("s", []domain.FileRecord{{ID: "a", Name: "a.txt"}})

	loaded, err := m.Load(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	require.NoError(t, m.Save(context.Background(), "s", nil))
	loaded, err = m.Load(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Equal(t, 1, m.SaveCount())
}
