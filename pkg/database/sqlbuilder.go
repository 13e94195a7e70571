package database

import (
	"github.com/huandu/go-sqlbuilder"
)

// FlavorFor returns the SQL dialect matching a driver name.
func FlavorFor(driverName string) sqlbuilder.Flavor {
	switch driverName {
	case DriverPostgres:
		return sqlbuilder.PostgreSQL
	default:
		return sqlbuilder.SQLite
	}
}

type Builders struct {
	flavor sqlbuilder.Flavor
}

func NewBuilders(driverName string) Builders {
	return Builders{flavor: FlavorFor(driverName)}
}

func (b Builders) Flavor() sqlbuilder.Flavor {
	return b.flavor
}

func (b Builders) Insert() *sqlbuilder.InsertBuilder {
	return b.flavor.NewInsertBuilder()
}

func (b Builders) Select() *sqlbuilder.SelectBuilder {
	return b.flavor.NewSelectBuilder()
}

func (b Builders) Update() *sqlbuilder.UpdateBuilder {
	return b.flavor.NewUpdateBuilder()
}

func (b Builders) Delete() *sqlbuilder.DeleteBuilder {
	return b.flavor.NewDeleteBuilder()
}
