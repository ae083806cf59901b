package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every HTTP surface mounted by pkg/app: the
// order editor, the incidents pass-through and the health probes.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
