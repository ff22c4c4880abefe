package http

import (
	"github.com/aisgo/ais-edu/middleware"
	"github.com/aisgo/ais-edu/resource"
	"github.com/aisgo/ais-edu/response"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Resource Routes - 资源路由
 * ========================================================================
 * 每个注册的集合挂载到 /<collection>:
 *   GET    /       list
 *   GET    /:id    getOne
 *   POST   /       create
 *   PATCH  /:id    update（PUT 同义）
 *   DELETE /:id    softDelete
 * 不可变集合（histories）不挂载 create / update
 * ======================================================================== */

// MountResources 为注册表中的每个集合挂载路由
func MountResources(router fiber.Router, reg *resource.Registry) {
	for _, h := range reg.Handlers() {
		mountResource(router.Group("/"+h.Collection()), h)
	}
}

func mountResource(g fiber.Router, h resource.Handler) {
	g.Get("/", func(c fiber.Ctx) error {
		return response.Send(c, h.List(c.Context(), c.Queries()))
	})
	g.Get("/:id", func(c fiber.Ctx) error {
		return response.Send(c, h.GetOne(c.Context(), c.Params("id")))
	})
	g.Delete("/:id", func(c fiber.Ctx) error {
		return response.Send(c, h.SoftDelete(c.Context(), middleware.ActorFromContext(c), c.Params("id")))
	})

	if h.Immutable() {
		return
	}

	g.Post("/", func(c fiber.Ctx) error {
		return response.Send(c, h.Create(c.Context(), middleware.ActorFromContext(c), c.Body()))
	})
	update := func(c fiber.Ctx) error {
		return response.Send(c, h.Update(c.Context(), middleware.ActorFromContext(c), c.Params("id"), c.Body()))
	}
	g.Patch("/:id", update)
	g.Put("/:id", update)
}
