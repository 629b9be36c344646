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

// Package deployment implements the container image build and push steps
// against a Google Artifact Registry docker repository.
package deployment

import "fmt"

// Manifest holds the four deployment parameters of the runbook.
type Manifest struct {
	// Project is the cloud project identifier
	Project string
	// Repository is the artifact registry docker repository name
	Repository string
	// Region is the deployment region, e.g. "europe-west1"
	Region string
	// Image is the image name, optionally suffixed with a ":tag"
	Image string
}

func (m Manifest) Validate() error {
	if m.Project == "" {
		return fmt.Errorf("deployment project is not defined")
	}
	if m.Repository == "" {
		return fmt.Errorf("deployment repository is not defined")
	}
	if m.Region == "" {
		return fmt.Errorf("deployment region is not defined")
	}
	if m.Image == "" {
		return fmt.Errorf("deployment image is not defined")
	}
	return nil
}

// ImageRef is the fully qualified artifact registry reference of the image.
func (m Manifest) ImageRef() string {
	return fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s", m.Region, m.Project, m.Repository, m.Image)
}
