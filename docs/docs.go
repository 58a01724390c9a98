// Package docs expone la especificación OpenAPI de la API (swag).
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerJSON string

// SwaggerInfo metadatos de la especificación; Host y BasePath se pueden ajustar al arrancar.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "KPI Tracker API",
	Description:      "KPIs, reportes y usuarios con control de acceso por rol.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerJSON,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// SwaggerJSON devuelve el documento registrado, listo para servir.
func SwaggerJSON() []byte {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		return []byte(swaggerJSON)
	}
	return []byte(doc)
}
