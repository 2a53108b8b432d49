package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a feature module that mounts its endpoints on the shared API router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
