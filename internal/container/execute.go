package container

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sunnyhub/openwhisk/internal/executor"
)

func sendPostRequestWithRetries(url string, body *bytes.Buffer) (*http.Response, error) {
	const maxRetries = 3
	const backoff = 300 * time.Millisecond

	var err error
	for retry := 1; retry <= maxRetries; retry++ {
		var resp *http.Response
		resp, err = http.Post(url, "application/json", bytes.NewReader(body.Bytes()))
		if err == nil {
			return resp, nil
		}
		time.Sleep(backoff)
	}

	return nil, err
}

// doInit reaches the executor running inside the container over HTTP and
// reports its RunResult. Used by every ContainerBackend's Init method, since
// the call only depends on GetIPAddress, which every backend already has.
func doInit(backend ContainerBackend, id ContainerID, req *executor.InvocationRequest) (*executor.RunResult, error) {
	ipAddr, err := backend.GetIPAddress(id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve container IP address: %w", err)
	}

	postBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal init request: %w", err)
	}

	resp, err := sendPostRequestWithRetries(
		fmt.Sprintf("http://%s:%d/init", ipAddr, executor.DEFAULT_EXECUTOR_PORT),
		bytes.NewBuffer(postBody))
	if err != nil {
		return nil, fmt.Errorf("request to executor failed: %w", err)
	}
	defer resp.Body.Close()

	result := &executor.RunResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("parsing executor response failed: %w", err)
	}

	return result, nil
}

// Invoke runs req inside an already-initialized container and reports its
// RunResult. Unlike Init (called once per container, at creation time),
// Invoke is called on warm requests against a container handed out by the
// pool; on a cold start the Init call already ran req, and its result is used
// as the invocation's result.
func Invoke(backend ContainerBackend, id ContainerID, req *executor.InvocationRequest) (*executor.RunResult, error) {
	return doInit(backend, id, req)
}
