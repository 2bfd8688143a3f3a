package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// APIClient talks to a running rdaemon control server.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8951"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *APIClient) checkError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errorResp.Error)
}

// Notify wakes the named daemon before its next scheduled wakeup.
func (c *APIClient) Notify(name string) error {
	resp, err := c.client.Post(c.baseURL+"/notify?name="+url.QueryEscape(name), "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return c.checkError(resp)
}

// Terminate asks the named daemon to wind down its run loop.
func (c *APIClient) Terminate(name string) error {
	resp, err := c.client.Post(c.baseURL+"/terminate?name="+url.QueryEscape(name), "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return c.checkError(resp)
}

// Terminated reports whether the named daemon has been told to stop.
func (c *APIClient) Terminated(name string) (bool, error) {
	resp, err := c.client.Get(c.baseURL + "/terminated?name=" + url.QueryEscape(name))
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := c.checkError(resp); err != nil {
		return false, err
	}
	var body struct {
		Terminated bool `json:"terminated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Terminated, nil
}

// List returns the daemons registered in the control server's process.
func (c *APIClient) List() ([]string, error) {
	resp, err := c.client.Get(c.baseURL + "/daemons")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := c.checkError(resp); err != nil {
		return nil, err
	}
	var body struct {
		Daemons []string `json:"daemons"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Daemons, nil
}
