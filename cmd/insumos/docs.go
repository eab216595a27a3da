package main

// @title Insumos Service API
// @version 1.0
// @description Safety equipment inventory per branch: inspections, live inventory, expiry tracking and reports.

// @contact.name API Support

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Auth
// @tag.description Company registration and login

// @tag.name Inventory
// @tag.description Current inventory and observation history

// @tag.name Inspections
// @tag.description Inspection lifecycle

// @tag.name Reports
// @tag.description Branch inventory reports

// @tag.name Health
// @tag.description Health check endpoints
