// Copyright 2024 Threadlens Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/threadlens/threadlens/deployment"
)

// deployViper represents the configuration of the deploy command
var deployViper = viper.New()

const deployProjectKey = "project"
const deployProjectEnv = "THREADLENS_PROJECT"
const deployRepositoryKey = "repository"
const deployRepositoryEnv = "THREADLENS_REPOSITORY"
const deployRegionKey = "region"
const deployRegionEnv = "THREADLENS_REGION"
const deployImageKey = "image"
const deployImageEnv = "THREADLENS_IMAGE"
const deployContextKey = "context"
const deployForceKey = "force"

const defaultImage = "threadlens:latest"

type deployCmdContext struct {
	imageBuilder func(ctx context.Context, manifest deployment.Manifest, contextDir string) error
	imagePusher  func(ctx context.Context, manifest deployment.Manifest) error
	force        bool
	stdin        io.Reader
}

func manifestFromConfig(cfg *viper.Viper) deployment.Manifest {
	return deployment.Manifest{
		Project:    cfg.GetString(deployProjectKey),
		Repository: cfg.GetString(deployRepositoryKey),
		Region:     cfg.GetString(deployRegionKey),
		Image:      cfg.GetString(deployImageKey),
	}
}

// deployCmd builds the container image and pushes it to the artifact registry
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build the container image and push it to the artifact registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		cmdCtx := deployCmdContext{
			imageBuilder: deployment.BuildImage,
			imagePusher:  deployment.PushImage,
			force:        deployViper.GetBool(deployForceKey),
			stdin:        os.Stdin,
		}
		return runDeploy(cmd.Context(), manifestFromConfig(deployViper), &cmdCtx, deployViper.GetString(deployContextKey))
	},
}

// deployBuildCmd only builds the container image
var deployBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the container image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		return deployment.BuildImage(cmd.Context(), manifestFromConfig(deployViper), deployViper.GetString(deployContextKey))
	},
}

// deployPushCmd only pushes a previously built image
var deployPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push a previously built container image to the artifact registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		cmdCtx := deployCmdContext{
			imagePusher: deployment.PushImage,
			force:       deployViper.GetBool(deployForceKey),
			stdin:       os.Stdin,
		}
		return runPush(cmd.Context(), manifestFromConfig(deployViper), &cmdCtx)
	},
}

func getAcceptPush(stdin io.Reader, imageRef string) string {
	reader := bufio.NewReader(stdin)
	fmt.Printf("Do you want to push %s (y/N): ", imageRef)
	accept, _ := reader.ReadString('\n')
	return strings.TrimSpace(accept)
}

func runDeploy(ctx context.Context, manifest deployment.Manifest, cmdCtx *deployCmdContext, contextDir string) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	if err := cmdCtx.imageBuilder(ctx, manifest, contextDir); err != nil {
		return err
	}
	return runPush(ctx, manifest, cmdCtx)
}

func runPush(ctx context.Context, manifest deployment.Manifest, cmdCtx *deployCmdContext) error {
	if err := manifest.Validate(); err != nil {
		return err
	}

	if !cmdCtx.force {
		accept := getAcceptPush(cmdCtx.stdin, manifest.ImageRef())
		if accept != "y" {
			fmt.Println("Push aborted")
			return nil
		}
	}

	if err := cmdCtx.imagePusher(ctx, manifest); err != nil {
		return err
	}

	fmt.Printf("Image %s pushed, it can now be deployed to the serverless runtime\n", manifest.ImageRef())
	return nil
}

func init() {
	_ = deployViper.BindEnv(deployProjectKey, deployProjectEnv)
	deployCmd.PersistentFlags().String(
		deployProjectKey,
		deployViper.GetString(deployProjectKey),
		"Cloud project identifier",
	)

	_ = deployViper.BindEnv(deployRepositoryKey, deployRepositoryEnv)
	deployCmd.PersistentFlags().String(
		deployRepositoryKey,
		deployViper.GetString(deployRepositoryKey),
		"Artifact registry docker repository",
	)

	_ = deployViper.BindEnv(deployRegionKey, deployRegionEnv)
	deployCmd.PersistentFlags().String(
		deployRegionKey,
		deployViper.GetString(deployRegionKey),
		"Deployment region",
	)

	deployViper.SetDefault(deployImageKey, defaultImage)
	_ = deployViper.BindEnv(deployImageKey, deployImageEnv)
	deployCmd.PersistentFlags().String(
		deployImageKey,
		deployViper.GetString(deployImageKey),
		"Image name, optionally suffixed with a tag",
	)

	deployViper.SetDefault(deployContextKey, ".")
	deployCmd.PersistentFlags().String(
		deployContextKey,
		deployViper.GetString(deployContextKey),
		"Docker build context directory",
	)

	deployCmd.PersistentFlags().Bool(deployForceKey, false, "Push without asking for confirmation")

	// Don't sort alphabetically, keep insertion order
	deployCmd.PersistentFlags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = deployViper.BindPFlags(deployCmd.PersistentFlags())

	deployCmd.AddCommand(deployBuildCmd)
	deployCmd.AddCommand(deployPushCmd)
}
