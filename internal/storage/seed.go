package storage

import (
	"github.com/bekosirs/bekoctl/internal/models"
)

// DefaultCatalog is the product list a fresh stub service starts with
func DefaultCatalog() []models.Product {
	laundry := &models.Category{ID: 1, Name: "Laundry"}
	cooling := &models.Category{ID: 2, Name: "Cooling"}
	kitchen := &models.Category{ID: 3, Name: "Kitchen"}

	return []models.Product{
		{ID: 1, Name: "WTV 9612 Washing Machine", Brand: "Beko", Price: "18999.00", Category: laundry, Status: "available", Description: "9 kg front loader with SteamCure"},
		{ID: 2, Name: "DPY 8506 Heat Pump Dryer", Brand: "Beko", Price: "21499.00", Category: laundry, Status: "available", Description: "8 kg heat pump tumble dryer"},
		{ID: 3, Name: "RCNE 560 Fridge Freezer", Brand: "Beko", Price: "27999.00", Category: cooling, Status: "available", Description: "NeoFrost combi with HarvestFresh"},
		{ID: 4, Name: "RFNE 312 Upright Freezer", Brand: "Beko", Price: "16499.00", Category: cooling, Status: "out_of_stock", Description: "No frost upright freezer"},
		{ID: 5, Name: "DEN 48522 Dishwasher", Brand: "Beko", Price: "15999.00", Category: kitchen, Status: "available", Description: "14 place settings, AutoDose"},
		{ID: 6, Name: "BBIE 17300 Built-in Oven", Brand: "Beko", Price: "12999.00", Category: kitchen, Status: "available", Description: "72 l multifunction oven"},
		{ID: 7, Name: "MOC 20100 Microwave", Brand: "Arçelik", Price: "3499.00", Status: "available", Description: "20 l solo microwave"},
	}
}
