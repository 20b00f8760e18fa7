package container

import (
	"bytes"
	"encoding/base64"
	"log"
)

// NewContainer creates and starts a new container from a base64-encoded tar
// of the action code.
func NewContainer(image, codeTar string, opts *ContainerOptions) (ContainerID, error) {
	contID, err := cf.Create(image, opts)
	if err != nil {
		log.Printf("Failed container creation")
		return "", err
	}

	if codeTar != "" {
		decodedCode, _ := base64.StdEncoding.DecodeString(codeTar)
		if err := cf.CopyToContainer(contID, bytes.NewReader(decodedCode), "/app/"); err != nil {
			log.Printf("Failed code copy")
			return "", err
		}
	}

	if err := cf.Start(contID); err != nil {
		return "", err
	}

	return contID, nil
}

func GetMemoryMB(id ContainerID) (int64, error) {
	return cf.GetMemoryMB(id)
}

func Destroy(id ContainerID) error {
	return cf.Destroy(id)
}
