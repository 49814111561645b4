// Command gen generates typed gorm query helpers for the persistence models.
package main

import (
	"globalchek/internal/infra/persistence/model"

	"gorm.io/gen"
)

func main() {
	models := []any{
		model.UserModel{},
		model.RefreshTokenModel{},
		model.PropertyModel{},
		model.VerificationModel{},
		model.UserDeviceModel{},
		model.NotificationModel{},
	}

	generator := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
		Mode:    gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	generator.ApplyBasic(models...)

	generator.Execute()
}
