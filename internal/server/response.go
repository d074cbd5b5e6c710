package server

import "github.com/gofiber/fiber/v2"

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func successResponse(message string, data any) response {
	return response{Success: true, Message: message, Data: data}
}

func errorResponse(message string, data any) response {
	return response{Success: false, Message: message, Data: data}
}

func fail(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(errorResponse(message, nil))
}
