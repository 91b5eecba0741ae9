package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Material{},
		&MaterialSubject{},
		&MaterialLike{},
		&Comment{},
		&Bookmark{},
	}
}
