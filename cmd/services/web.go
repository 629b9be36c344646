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

package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/threadlens/threadlens/cmd/services/utils"
	"github.com/threadlens/threadlens/services/web"
	"github.com/threadlens/threadlens/version"
)

// webViper represents the configuration of the web command
var webViper = viper.New()

const webPortKey = "port"
const webPortEnv = "THREADLENS_WEB_PORT"
const webStoreFileKey = "store_file"
const webStoreFileEnv = "THREADLENS_STORE_FILE"

// Credentials keep the environment variable names of the original deployment
const webRedditClientIDKey = "reddit_client_id"
const webRedditClientIDEnv = "REDDIT_CLIENT_ID"
const webRedditClientSecretKey = "reddit_client_secret"
const webRedditClientSecretEnv = "REDDIT_CLIENT_SECRET"
const webRedditUserAgentKey = "reddit_user_agent"
const webRedditUserAgentEnv = "REDDIT_USER_AGENT"
const webOpenAIAPIKeyKey = "openai_api_key"
const webOpenAIAPIKeyEnv = "OPENAI_API_KEY"
const webPineconeAPIKeyKey = "pinecone_api_key"
const webPineconeAPIKeyEnv = "PINECONE_API_KEY"
const webPineconeIndexHostKey = "pinecone_index_host"
const webPineconeIndexHostEnv = "PINECONE_INDEX_HOST"
const webIndexNameKey = "index_name"
const webIndexNameEnv = "INDEX_NAME"

// webCmd represents the web service
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the web service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		err := configureLog(servicesViper)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"version": version.Version,
			"hash":    version.Hash,
		}).Info("starting the web service")

		options := web.Options{
			Port:               webViper.GetUint(webPortKey),
			StoreFile:          webViper.GetString(webStoreFileKey),
			RedditClientID:     webViper.GetString(webRedditClientIDKey),
			RedditClientSecret: webViper.GetString(webRedditClientSecretKey),
			RedditUserAgent:    webViper.GetString(webRedditUserAgentKey),
			OpenAIAPIKey:       webViper.GetString(webOpenAIAPIKeyKey),
			PineconeAPIKey:     webViper.GetString(webPineconeAPIKeyKey),
			PineconeIndexHost:  webViper.GetString(webPineconeIndexHostKey),
			IndexName:          webViper.GetString(webIndexNameKey),
		}

		ctx := utils.ContextWithUserTermination(context.Background())

		err = web.Run(ctx, options)
		if err != nil {
			if err == context.Canceled {
				log.Info("interrupted by user")
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	webViper.SetDefault(webPortKey, web.DefaultOptions.Port)
	_ = webViper.BindEnv(webPortKey, webPortEnv)
	webCmd.Flags().Uint(
		webPortKey,
		webViper.GetUint(webPortKey),
		"The http port to listen on",
	)

	webViper.SetDefault(webStoreFileKey, web.DefaultOptions.StoreFile)
	_ = webViper.BindEnv(webStoreFileKey, webStoreFileEnv)
	webCmd.Flags().String(
		webStoreFileKey,
		webViper.GetString(webStoreFileKey),
		"File backing the post store, in-memory when left empty",
	)

	_ = webViper.BindEnv(webRedditClientIDKey, webRedditClientIDEnv)
	_ = webViper.BindEnv(webRedditClientSecretKey, webRedditClientSecretEnv)
	_ = webViper.BindEnv(webRedditUserAgentKey, webRedditUserAgentEnv)
	_ = webViper.BindEnv(webOpenAIAPIKeyKey, webOpenAIAPIKeyEnv)
	_ = webViper.BindEnv(webPineconeAPIKeyKey, webPineconeAPIKeyEnv)
	_ = webViper.BindEnv(webPineconeIndexHostKey, webPineconeIndexHostEnv)
	_ = webViper.BindEnv(webIndexNameKey, webIndexNameEnv)

	// Bind "cobra" flags defined in the CLI with viper
	_ = webViper.BindPFlags(webCmd.Flags())
}
