package deployment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testManifest = Manifest{
	Project:    "my-project",
	Repository: "my-repo",
	Region:     "europe-west1",
	Image:      "threadlens:latest",
}

func TestImageRef(t *testing.T) {
	assert.Equal(
		t,
		"europe-west1-docker.pkg.dev/my-project/my-repo/threadlens:latest",
		testManifest.ImageRef(),
	)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testManifest.Validate())

	var tests = []struct {
		name     string
		mutate   func(m *Manifest)
		expected string
	}{
		{"project", func(m *Manifest) { m.Project = "" }, "project"},
		{"repository", func(m *Manifest) { m.Repository = "" }, "repository"},
		{"region", func(m *Manifest) { m.Region = "" }, "region"},
		{"image", func(m *Manifest) { m.Image = "" }, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := testManifest
			tt.mutate(&manifest)
			err := manifest.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestBuildImage(t *testing.T) {
	previousRunner := commandRunner
	defer func() { commandRunner = previousRunner }()

	ranCommands := [][]string{}
	commandRunner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		ranCommands = append(ranCommands, append([]string{name}, args...))
		return []byte("ok"), nil
	}

	require.NoError(t, BuildImage(context.Background(), testManifest, "."))
	require.Len(t, ranCommands, 1)
	assert.Equal(t, []string{
		"docker", "build", "-t",
		"europe-west1-docker.pkg.dev/my-project/my-repo/threadlens:latest", ".",
	}, ranCommands[0])
}

func TestPushImageFailure(t *testing.T) {
	previousRunner := commandRunner
	defer func() { commandRunner = previousRunner }()

	commandRunner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("denied: permission error"), fmt.Errorf("exit status 1")
	}

	err := PushImage(context.Background(), testManifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission error")
}

func TestBuildImageInvalidManifest(t *testing.T) {
	err := BuildImage(context.Background(), Manifest{}, ".")
	assert.Error(t, err)
}
