package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Input keys. Each is read from INPUT_<KEY> (upper-cased), the way Azure
// Pipelines exposes task inputs, unless a flag overrides it.
const (
	KeyWorkItemID        = "workItemId"
	KeyUserPrompt        = "userPrompt"
	KeyAgentType         = "agentType"
	KeyAPIKey            = "apiKey"
	KeyContainerImage    = "containerImage"
	KeySystemPrompt      = "systemPrompt"
	KeyCreatePullRequest = "createPullRequest"
	KeyTargetBranch      = "targetBranch"
	KeyExecutionMode     = "executionMode"
	KeySummarizeLog      = "summarizeLog"
)

// InputKeys lists every task input key.
var InputKeys = []string{
	KeyWorkItemID, KeyUserPrompt, KeyAgentType, KeyAPIKey, KeyContainerImage,
	KeySystemPrompt, KeyCreatePullRequest, KeyTargetBranch, KeyExecutionMode, KeySummarizeLog,
}

// Context keys and the pipeline variables they are read from.
const (
	keySourceBranch     = "sourceBranch"
	keySourcesDirectory = "sourcesDirectory"
	keyStagingDirectory = "artifactStagingDirectory"
	keyCollectionURI    = "collectionUri"
	keyAccessToken      = "accessToken"
	keyProjectID        = "projectId"
	keyProjectName      = "projectName"
	keyRepositoryID     = "repositoryId"
	keyRepositoryName   = "repositoryName"
	keyDebug            = "debug"
	keyMetricsPushURL   = "metricsPushUrl"
	keySummaryModel     = "summaryModel"
)

var contextEnv = map[string][]string{
	keySourceBranch:     {"BUILD_SOURCEBRANCH"},
	keySourcesDirectory: {"BUILD_SOURCESDIRECTORY"},
	keyStagingDirectory: {"BUILD_ARTIFACTSTAGINGDIRECTORY"},
	keyCollectionURI:    {"SYSTEM_TEAMFOUNDATIONCOLLECTIONURI"},
	keyAccessToken:      {"SYSTEM_ACCESSTOKEN", "AZURE_DEVOPS_PAT"},
	keyProjectID:        {"SYSTEM_TEAMPROJECTID"},
	keyProjectName:      {"SYSTEM_TEAMPROJECT"},
	keyRepositoryID:     {"BUILD_REPOSITORY_ID"},
	keyRepositoryName:   {"BUILD_REPOSITORY_NAME"},
	keyDebug:            {"SYSTEM_DEBUG"},
	keyMetricsPushURL:   {"AUTOCODER_METRICS_PUSHGATEWAY"},
	keySummaryModel:     {"AUTOCODER_SUMMARY_MODEL"},
}

// InputEnvName returns the environment variable a task input is read from.
func InputEnvName(key string) string {
	return "INPUT_" + strings.ToUpper(key)
}

// NewViper returns a viper instance with defaults set and every input and
// context key bound to its pipeline environment variable.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyCreatePullRequest, DefaultCreatePullRequest)
	v.SetDefault(KeyTargetBranch, DefaultTargetBranch)
	v.SetDefault(KeyExecutionMode, string(DefaultExecutionMode))
	v.SetDefault(KeySummarizeLog, false)

	for _, key := range InputKeys {
		_ = v.BindEnv(key, InputEnvName(key))
	}
	for key, names := range contextEnv {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

// LoadTaskInputs reads the task inputs from v. Values are trimmed; empty
// strings fall back to the defaults.
func LoadTaskInputs(v *viper.Viper) TaskInputs {
	in := TaskInputs{
		WorkItemID:        trimmed(v, KeyWorkItemID),
		UserPrompt:        trimmed(v, KeyUserPrompt),
		AgentType:         AgentType(strings.ToLower(trimmed(v, KeyAgentType))),
		APIKey:            trimmed(v, KeyAPIKey),
		ContainerImage:    trimmed(v, KeyContainerImage),
		SystemPrompt:      trimmed(v, KeySystemPrompt),
		CreatePullRequest: v.GetBool(KeyCreatePullRequest),
		TargetBranch:      trimmed(v, KeyTargetBranch),
		ExecutionMode:     ExecutionMode(strings.ToLower(trimmed(v, KeyExecutionMode))),
		SummarizeLog:      v.GetBool(KeySummarizeLog),
	}
	if in.TargetBranch == "" {
		in.TargetBranch = DefaultTargetBranch
	}
	if in.ExecutionMode == "" {
		in.ExecutionMode = DefaultExecutionMode
	}
	return in
}

// LoadRunContext reads the pipeline context from v. Missing directories
// default to the process working directory and <cwd>/out.
func LoadRunContext(v *viper.Viper) RunContext {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	rc := RunContext{
		RunID:                    uuid.NewString(),
		SourceBranch:             BranchName(trimmed(v, keySourceBranch)),
		SourcesDirectory:         trimmed(v, keySourcesDirectory),
		ArtifactStagingDirectory: trimmed(v, keyStagingDirectory),
		CollectionURI:            trimmed(v, keyCollectionURI),
		AccessToken:              trimmed(v, keyAccessToken),
		ProjectID:                trimmed(v, keyProjectID),
		ProjectName:              trimmed(v, keyProjectName),
		RepositoryID:             trimmed(v, keyRepositoryID),
		RepositoryName:           trimmed(v, keyRepositoryName),
		Debug:                    v.GetBool(keyDebug),
		MetricsPushURL:           trimmed(v, keyMetricsPushURL),
		SummaryModel:             trimmed(v, keySummaryModel),
	}
	if rc.SourcesDirectory == "" {
		rc.SourcesDirectory = cwd
	}
	if rc.ArtifactStagingDirectory == "" {
		rc.ArtifactStagingDirectory = filepath.Join(cwd, "out")
	}
	return rc
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}
