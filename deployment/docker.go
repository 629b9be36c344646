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

package deployment

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "deployment")

// commandRunner runs a command returning its combined output, overridden in tests.
var commandRunner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// BuildImage builds the container image from the given build context directory.
func BuildImage(ctx context.Context, manifest Manifest, contextDir string) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	imageRef := manifest.ImageRef()

	log.WithField("image", imageRef).Info("Building docker image")

	out, err := commandRunner(ctx, "docker", "build", "-t", imageRef, contextDir)
	if len(out) > 0 {
		log.WithField("image", imageRef).Debugf("docker build output:\n%s", string(out))
	}
	if err != nil {
		return fmt.Errorf("unable to build image %q: %w\n%s", imageRef, err, string(out))
	}
	return nil
}

// PushImage pushes the built image to the artifact registry.
func PushImage(ctx context.Context, manifest Manifest) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	imageRef := manifest.ImageRef()

	log.WithField("image", imageRef).Info("Pushing docker image")

	out, err := commandRunner(ctx, "docker", "push", imageRef)
	if len(out) > 0 {
		log.WithField("image", imageRef).Debugf("docker push output:\n%s", string(out))
	}
	if err != nil {
		return fmt.Errorf("unable to push image %q: %w\n%s", imageRef, err, string(out))
	}
	return nil
}
