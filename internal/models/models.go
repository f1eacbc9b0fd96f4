package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Team{},
		&TaskGroup{},
		&TeamMember{},
		&GroupMember{},
		&Task{},
		&ChildTask{},
		&TaskAssistant{},
		&TaskFile{},
		&TaskNode{},
		&TaskEdge{},
		&TaskAudit{},
	}
}
