package main

import (
	models "aigym/internal/domain/models/content"

	"github.com/google/uuid"
)

func seedDocuments() []*models.ContentDocument {
	return []*models.ContentDocument{
		{
			RepositoryType: models.RepositoryWods,
			Title:          "Fran",
			Description:    "21-15-9 thrusters and pull-ups",
			Status:         models.StatusPublished,
			Tags:           []string{"benchmark", "girls"},
			Metadata:       models.Metadata{EstimatedDurationMinutes: 10, DifficultyLevel: "advanced"},
			Content: body(page("Workout",
				header("For time", "h2"),
				exercise("Thruster", 3, 21, 43),
				exercise("Pull-up", 3, 21, 0),
				text("Scale the thruster to 30 kg and use banded pull-ups if needed."),
			)),
		},
		{
			RepositoryType: models.RepositoryWods,
			Title:          "Cindy",
			Description:    "20 minute AMRAP",
			Status:         models.StatusDraft,
			Tags:           []string{"benchmark", "bodyweight"},
			Metadata:       models.Metadata{EstimatedDurationMinutes: 20, DifficultyLevel: "intermediate"},
			Content: body(page("AMRAP 20",
				exercise("Pull-up", 0, 5, 0),
				exercise("Push-up", 0, 10, 0),
				exercise("Air squat", 0, 15, 0),
			)),
		},
		{
			RepositoryType: models.RepositoryBlocks,
			Title:          "Shoulder warm-up",
			Description:    "Banded activation before pressing",
			Status:         models.StatusPublished,
			Tags:           []string{"warm-up"},
			Metadata:       models.Metadata{EstimatedDurationMinutes: 8, DifficultyLevel: "beginner"},
			Content: bodyWithDetails(models.BlockDetails{
				Instructions:    "Move slowly and keep the ribs down.",
				EquipmentNeeded: []string{"resistance band"},
				BlockCategory:   "warm-up",
			}, page("Sequence",
				exercise("Band pull-apart", 2, 15, 0),
				exercise("Band dislocate", 2, 10, 0),
			)),
		},
		{
			RepositoryType: models.RepositoryPrograms,
			Title:          "Four week strength base",
			Description:    "Three sessions a week of linear progression",
			Status:         models.StatusDraft,
			Tags:           []string{"strength"},
			Metadata:       models.Metadata{EstimatedDurationMinutes: 60, DifficultyLevel: "intermediate"},
			Content: body(
				page("Week 1", header("Session A", "h2"), exercise("Back squat", 5, 5, 80)),
				page("Week 2", header("Session A", "h2"), exercise("Back squat", 5, 5, 85)),
			),
		},
		{
			RepositoryType: models.RepositoryDocuments,
			Title:          "Coaching standards",
			Status:         models.StatusPublished,
			Content:        body(page("Standards", text("Every athlete warms up before loading the bar."))),
		},
	}
}

func body(pages ...models.Page) models.Body {
	for i := range pages {
		pages[i].Order = i
	}
	return models.Body{Pages: pages, Settings: models.Settings{AutoSaveEnabled: true}}
}

func bodyWithDetails(details models.BlockDetails, pages ...models.Page) models.Body {
	b := body(pages...)
	b.BlockDetails = &details
	return b
}

func page(title string, blocks ...models.Block) models.Page {
	id := uuid.NewString()
	for i := range blocks {
		blocks[i].Order = i
		blocks[i].PageID = id
	}
	return models.Page{ID: id, Title: title, Blocks: blocks}
}

func header(text, level string) models.Block {
	return models.Block{ID: uuid.NewString(), Type: models.BlockSectionHeader, Data: &models.SectionHeaderData{Text: text, Level: level}}
}

func text(content string) models.Block {
	return models.Block{ID: uuid.NewString(), Type: models.BlockRichText, Data: &models.RichTextData{Content: content}}
}

func exercise(name string, sets, reps int, weight float64) models.Block {
	return models.Block{
		ID:    uuid.NewString(),
		Type:  models.BlockExercise,
		Title: name,
		Data:  &models.ExerciseData{Name: name, Sets: sets, Reps: reps, Weight: weight},
	}
}
