// Package httpapp exposes the blog API over HTTP.
//
// Routes live under /api. Everything except /api/auth and /healthz needs an
// "Authorization: Bearer <token>" header obtained from POST /api/auth/login.
//
//	POST   /api/auth/signup            create an account
//	POST   /api/auth/login             exchange email and password for a token
//	GET    /api/posts                  list posts (page, limit, author, tags)
//	GET    /api/posts/search           search title and content (query, page, limit)
//	POST   /api/posts                  publish a post
//	GET    /api/posts/{id}             read a post
//	PUT    /api/posts/{id}             edit a post (author or admin)
//	DELETE /api/posts/{id}             remove a post (author or admin)
//	POST   /api/posts/{id}/comments    comment on a post
//	GET    /api/users                  list users (page, limit)
//	POST   /api/users                  create a user (admin)
//	GET    /api/users/{id}             read a user
//	PUT    /api/users/{id}             update a user
//	DELETE /api/users/{id}             remove a user
//
// Errors are JSON objects of the form
//
//	{"success": false, "status": "fail", "message": "Post with id 4 not found"}
//
// with status "error" for server faults. Authentication failures answer 403.
package httpapp
