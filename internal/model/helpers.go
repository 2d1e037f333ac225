package model

import "os"

func osHostname() (string, error) {
	h, err := os.Hostname()
	if err != nil {
		return "unknown-host", err
	}
	return h, nil
}
