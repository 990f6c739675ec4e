package main

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

var httpClient = resty.New()

func doGet(url string, query map[string]string) (string, error) {
	resp, err := httpClient.R().SetQueryParams(query).Get(url)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

func doPostJSON(url string, payload interface{}) (string, error) {
	resp, err := httpClient.R().SetBody(payload).Post(url)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

func doPatchJSON(url string, payload interface{}) (string, error) {
	resp, err := httpClient.R().SetBody(payload).Patch(url)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
