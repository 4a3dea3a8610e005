// Package config loads and validates the managedproxy YAML configuration.
//
// Values of the form ${VAR} and ${VAR:-default} are substituted from the
// environment before parsing; "$$" produces a literal dollar sign.
//
//	listen: ":8080"
//	logging:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  listen: ":9090"
//	rateLimit:
//	  enabled: true
//	  requestsPerSecond: 100
//	  burst: 200
//	views:
//	  dir: ./views
//	  watch: true
//	servers:
//	  - name: users
//	    target: ${USERS_URL:-http://localhost:9000}
//	    changeOrigin: true
//	    routes:
//	      - method: GET
//	        path: /users/:id
//	        selfHandleResponse: true
//	        response:
//	          action: render
//	          view: user
//
// Validate collects every problem instead of stopping at the first one.
package config
