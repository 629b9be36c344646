package cmd

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/threadlens/threadlens/deployment"
)

type mockedDeployment struct {
	mock.Mock
}

func (m *mockedDeployment) BuildImage(ctx context.Context, manifest deployment.Manifest, contextDir string) error {
	args := m.Called(ctx, manifest, contextDir)
	return args.Error(0)
}

func (m *mockedDeployment) PushImage(ctx context.Context, manifest deployment.Manifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

var testManifest = deployment.Manifest{
	Project:    "my-project",
	Repository: "my-repo",
	Region:     "europe-west1",
	Image:      "threadlens:latest",
}

func TestRunDeployAccepted(t *testing.T) {
	mockDeploy := new(mockedDeployment)
	mockDeploy.On("BuildImage", mock.Anything, testManifest, ".").Return(nil).Once()
	mockDeploy.On("PushImage", mock.Anything, testManifest).Return(nil).Once()

	var stdin bytes.Buffer
	stdin.Write([]byte("y\n"))

	cmdCtx := deployCmdContext{
		imageBuilder: mockDeploy.BuildImage,
		imagePusher:  mockDeploy.PushImage,
		stdin:        &stdin,
	}

	err := runDeploy(context.Background(), testManifest, &cmdCtx, ".")
	require.NoError(t, err)
	mockDeploy.AssertExpectations(t)
}

func TestRunDeployAborted(t *testing.T) {
	mockDeploy := new(mockedDeployment)
	mockDeploy.On("BuildImage", mock.Anything, testManifest, ".").Return(nil).Once()

	var stdin bytes.Buffer
	stdin.Write([]byte("n\n"))

	cmdCtx := deployCmdContext{
		imageBuilder: mockDeploy.BuildImage,
		imagePusher:  mockDeploy.PushImage,
		stdin:        &stdin,
	}

	err := runDeploy(context.Background(), testManifest, &cmdCtx, ".")
	require.NoError(t, err)
	mockDeploy.AssertNotCalled(t, "PushImage", mock.Anything, mock.Anything)
}

func TestRunDeployForced(t *testing.T) {
	mockDeploy := new(mockedDeployment)
	mockDeploy.On("BuildImage", mock.Anything, testManifest, ".").Return(nil).Once()
	mockDeploy.On("PushImage", mock.Anything, testManifest).Return(nil).Once()

	cmdCtx := deployCmdContext{
		imageBuilder: mockDeploy.BuildImage,
		imagePusher:  mockDeploy.PushImage,
		force:        true,
		stdin:        &bytes.Buffer{},
	}

	err := runDeploy(context.Background(), testManifest, &cmdCtx, ".")
	require.NoError(t, err)
	mockDeploy.AssertExpectations(t)
}

func TestRunDeployInvalidManifest(t *testing.T) {
	mockDeploy := new(mockedDeployment)

	cmdCtx := deployCmdContext{
		imageBuilder: mockDeploy.BuildImage,
		imagePusher:  mockDeploy.PushImage,
		force:        true,
		stdin:        &bytes.Buffer{},
	}

	err := runDeploy(context.Background(), deployment.Manifest{}, &cmdCtx, ".")
	assert.Error(t, err)
	mockDeploy.AssertNotCalled(t, "BuildImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunDeployBuildFailure(t *testing.T) {
	mockDeploy := new(mockedDeployment)
	mockDeploy.On("BuildImage", mock.Anything, testManifest, ".").
		Return(fmt.Errorf("build failed")).Once()

	cmdCtx := deployCmdContext{
		imageBuilder: mockDeploy.BuildImage,
		imagePusher:  mockDeploy.PushImage,
		force:        true,
		stdin:        &bytes.Buffer{},
	}

	err := runDeploy(context.Background(), testManifest, &cmdCtx, ".")
	assert.ErrorContains(t, err, "build failed")
	mockDeploy.AssertNotCalled(t, "PushImage", mock.Anything, mock.Anything)
}
