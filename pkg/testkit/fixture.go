package testkit

import (
	"encoding/json"
	"fmt"
	"os"
)

// Route is one entry of a JSON fixture file:
//
//	{
//	  "routes": [
//	    {"method": "GET", "matchUrl": "orders", "statusCode": 200, "body": {"$values": []}}
//	  ]
//	}
type Route struct {
	Method     string          `json:"method"`
	MatchURL   string          `json:"matchUrl"`
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

type fixtureFile struct {
	Routes []Route `json:"routes"`
}

// LoadRoutes reads a fixture file.
func LoadRoutes(path string) ([]Route, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %s: %w", path, err)
	}
	var f fixtureFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("testkit: parse %s: %w", path, err)
	}
	for i, r := range f.Routes {
		if r.Method == "" {
			return nil, fmt.Errorf("testkit: %s: route %d has no method", path, i)
		}
	}
	return f.Routes, nil
}

// Load registers every route of a fixture file.
func (mt *MockTransport) Load(path string) error {
	routes, err := LoadRoutes(path)
	if err != nil {
		return err
	}
	for _, r := range routes {
		code := r.StatusCode
		if code == 0 {
			code = 200
		}
		mt.On(r.Method, r.MatchURL).Body(code, string(r.Body))
	}
	return nil
}
