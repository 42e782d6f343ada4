// Package request describes HTTP calls abstractly, independent of where or
// how they are sent.
//
// A Request is a passive value: method, path, query, headers and body. It is
// resolved into a wire request by the builder package and executed by a
// session.
//
// # Constructing Requests
//
//	req := request.GET("/users/1",
//	    request.WithQuery("expand", "profile"),
//	    request.WithHeader("Accept", "application/json"),
//	)
//
//	create := request.POST("/users", request.WithBody(User{Name: "Ada"}))
//
//	purge := request.New("PURGE", "/cache/users")
//
// # Routing Table
//
// Named routes with path templates can be declared once and expanded per call:
//
//	routes := request.NewRouter()
//	routes.Handle("user", request.MethodGet, "/users/{id:[0-9]+}")
//
//	req, err := routes.Request("user", map[string]string{"id": "1"})
package request
