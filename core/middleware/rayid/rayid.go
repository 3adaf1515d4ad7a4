package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the request's RayID.
const Header = "X-Ray-ID"

// LocalsKey is the fiber.Ctx locals key the RayID is stored under.
const LocalsKey = "ray_id"

// New returns a middleware assigning every request a RayID.
// An incoming X-Ray-ID header is reused so upstream proxies can correlate requests.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
