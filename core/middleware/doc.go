// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting every route except an explicit skip list.
//   - rayid: assigns a RayID to each request, exposed in Locals and the X-Ray-ID header.
package middleware
