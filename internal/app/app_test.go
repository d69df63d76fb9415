package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/logging"
)

func TestPromptConfirmer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"YES\n", true},
		{"SEND\n", true},
		{"  yes  \n", true},
		{"send\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := NewPromptConfirmer(strings.NewReader(tt.input), &out)

		ok, err := c.Confirm(context.Background(), 3)
		require.NoError(t, err, tt.input)
		require.Equal(t, tt.want, ok, tt.input)
		require.Contains(t, out.String(), "About to send 3 real emails")
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	var cfg config.Config
	cfg.Output = config.OutputConfig{
		ConferencesCSV:   filepath.Join(dir, "conferences.csv"),
		VenueResearchCSV: filepath.Join(dir, "venue_research.csv"),
		EmailsCSV:        filepath.Join(dir, "emails.csv"),
		MissingEmailsCSV: filepath.Join(dir, "missing_emails.csv"),
	}
	cfg.Ledger.Path = filepath.Join(dir, "sent.db")
	return cfg
}

func TestNewLiveRequiresSMTPCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(testConfig(t), Options{Live: true}, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewLiveOpensLedger(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.SMTP = config.SMTPConfig{Host: "127.0.0.1", Port: 2525, Username: "me@uni.edu", Password: "secret"}

	a, err := New(cfg, Options{Live: true, AssumeYes: true}, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	_, err = os.Stat(cfg.Ledger.Path)
	require.NoError(t, err)
}

func TestStagesWithoutKeysFail(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := New(cfg, Options{}, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, os.WriteFile(cfg.Output.ConferencesCSV, []byte("name,url,email\nCOLM,u,pc@colm.org\n"), 0o644))

	err = a.Pipeline().ResearchStored(context.Background())
	require.ErrorIs(t, err, domain.ErrConfiguration)

	err = a.Resume(context.Background(), "")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLoadsProfileForGeneration(t *testing.T) {
	t.Parallel()

	_, err := New(testConfig(t), Options{Generate: true, ProfilePath: filepath.Join(t.TempDir(), "missing.yaml")},
		logging.NewWithWriter(&bytes.Buffer{}, "error"))
	require.Error(t, err)
}

func writeProfile(t *testing.T, email string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Ada Park\nemail: "+email+"\n"), 0o644))
	return path
}

func TestSendStoredUsesProfileAddressWithoutSMTPUser(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Output.EmailsCSV, []byte(
		"venue_name,to_email,subject,body\nCOLM,pc@colm.org,Reviewer Opportunity - COLM,Hello.\n"), 0o644))

	a, err := New(cfg, Options{ProfilePath: writeProfile(t, "ada@uni.edu")}, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	defer a.Close()

	report, err := a.Pipeline().SendStored(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.SendReport{Sent: 1}, report)
}

func TestNewLiveRefusesPlaintextAuthToRemoteHost(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.org", Port: 587, Username: "me@uni.edu", Password: "secret"}

	_, err := New(cfg, Options{Live: true, AssumeYes: true}, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
