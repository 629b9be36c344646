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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/threadlens/threadlens/version"
)

// versionCmd prints the version of the CLI
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of threadlens",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _args []string) {
		fmt.Printf("threadlens %s (%s)\n", version.Version, version.Hash)
	},
}
