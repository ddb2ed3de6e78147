package gitmeta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(hash, short, subject, name, email, authorDate, commitDate, body string) string {
	return hash + fieldSep + short + fieldSep + subject + fieldSep + name + fieldSep + email + fieldSep + authorDate + fieldSep + commitDate + fieldSep + body + recordSep
}

func TestParseLog_SingleRecord(t *testing.T) {
	out := record("abc123full", "abc123", "fix typo", "Ada Lovelace", "ada@example.com", "2024-01-02T03:04:05Z", "2024-01-02T03:05:00Z", "")

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 1)

	c := commits[0]
	assert.Equal(t, "abc123full", c.Hash)
	assert.Equal(t, "abc123", c.ShortHash)
	assert.Equal(t, "fix typo", c.Subject)
	assert.Equal(t, "Ada Lovelace", c.AuthorName)
	assert.Equal(t, "ada@example.com", c.AuthorEmail)
	assert.True(t, c.AuthorDate.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestParseLog_MultipleRecordsNewestFirst(t *testing.T) {
	out := record("h2", "h2s", "second commit", "A", "a@x.com", "2024-02-01T00:00:00Z", "2024-02-01T00:00:00Z", "") +
		record("h1", "h1s", "first commit", "A", "a@x.com", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", "")

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "second commit", commits[0].Subject)
	assert.Equal(t, "first commit", commits[1].Subject)
}

func TestParseLog_EmptyOutputIsNoCommitsNoError(t *testing.T) {
	commits, err := parseLog("")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestParseLog_MalformedRecordIsAnError(t *testing.T) {
	_, err := parseLog("only" + fieldSep + "two-fields" + recordSep)
	assert.Error(t, err)
}

func TestParseLog_PreservesMultilineBody(t *testing.T) {
	out := record("h1", "h1s", "subject", "A", "a@x.com", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", "line one\nline two\n")

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "line one\nline two", commits[0].Body)
}
