package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/sunnyhub/openwhisk/internal/executor"
)

func main() {
	http.HandleFunc("/init", executor.RunHandler)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", executor.DEFAULT_EXECUTOR_PORT), nil))
}
