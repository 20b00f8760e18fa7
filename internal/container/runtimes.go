package container

import (
	"strings"

	"github.com/sunnyhub/openwhisk/internal/config"
)

//RuntimeInfo contains information about a supported function runtime env.
type RuntimeInfo struct {
	Image         string
	InvocationCmd []string
}

const CUSTOM_RUNTIME = "custom"

// WhiskImagePrefix marks images assumed already present locally: backends
// must skip the pull step for any image under this prefix.
const WhiskImagePrefix = "whisk/"

var refreshedImages = map[string]bool{}

var RuntimeToInfo = getRuntimeInfo()

// HasWhiskPrefix reports whether image is one the backend should treat as
// locally resident rather than pull from a registry.
func HasWhiskPrefix(image string) bool {
	return strings.HasPrefix(image, WhiskImagePrefix)
}

func getRuntimeInfo() map[string]RuntimeInfo {
	config.ReadConfiguration(config.DefaultConfigFileName)
	tag := config.GetString(config.DOCKER_IMAGE_TAG, "latest")
	return map[string]RuntimeInfo{
		"python310":  {WhiskImagePrefix + "python310:" + tag, []string{"python", "/entrypoint.py"}},
		"nodejs17":   {WhiskImagePrefix + "nodejs17:" + tag, []string{"node", "/entrypoint.js"}},
		"nodejs17ng": {WhiskImagePrefix + "nodejs17ng:" + tag, []string{}},
	}
}
