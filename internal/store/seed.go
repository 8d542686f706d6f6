package store

import (
	"context"

	"career-bingo/internal/game"
)

// Seeder is the subset of repository methods needed to bootstrap an empty
// database. Both Store and Memory satisfy it.
type Seeder interface {
	ListRooms(ctx context.Context) ([]game.Room, error)
	CreateRoom(ctx context.Context, room game.Room) (string, error)
	CountQuestions(ctx context.Context) (int, error)
	CreateQuestion(ctx context.Context, q game.Question) (string, error)
}

type clue struct {
	Category   string
	Difficulty string
	Text       string
}

// DefaultCatalog is the built-in clue set: two clues for each of 30 career
// categories.
var DefaultCatalog = []clue{
	{"ACCOUNTANT", "easy", "Reconciles ledgers and prepares tax returns."},
	{"ACCOUNTANT", "medium", "Closes the books at month end and audits expense reports."},
	{"ARCHITECT", "easy", "Designs buildings and draws floor plans."},
	{"ARCHITECT", "hard", "Balances load paths, zoning codes and daylight when shaping a facade."},
	{"CHEF", "easy", "Runs the kitchen line and writes the menu."},
	{"CHEF", "medium", "Calls tickets at the pass during dinner service."},
	{"DATA_SCIENTIST", "medium", "Builds predictive models from large datasets."},
	{"DATA_SCIENTIST", "hard", "Designs A/B experiments and checks them for statistical power."},
	{"DENTIST", "easy", "Fills cavities and cleans teeth."},
	{"DENTIST", "medium", "Reads bitewing x-rays to plan a root canal."},
	{"ELECTRICIAN", "easy", "Wires outlets and installs breaker panels."},
	{"ELECTRICIAN", "medium", "Pulls permits and runs conduit to code."},
	{"FIREFIGHTER", "easy", "Puts out fires and rescues people from burning buildings."},
	{"FIREFIGHTER", "medium", "Ventilates a roof before the crew enters a structure."},
	{"GRAPHIC_DESIGNER", "easy", "Creates logos and visual layouts."},
	{"GRAPHIC_DESIGNER", "medium", "Prepares print-ready files with bleed and CMYK profiles."},
	{"JOURNALIST", "easy", "Interviews sources and writes news stories."},
	{"JOURNALIST", "medium", "Files copy before deadline and protects anonymous sources."},
	{"LAWYER", "easy", "Represents clients in court."},
	{"LAWYER", "hard", "Drafts motions in limine before a jury trial."},
	{"LIBRARIAN", "easy", "Catalogs books and helps patrons find research."},
	{"LIBRARIAN", "medium", "Maintains metadata schemas for a digital archive."},
	{"MECHANIC", "easy", "Repairs engines and replaces brake pads."},
	{"MECHANIC", "medium", "Reads OBD-II codes to diagnose a misfire."},
	{"NURSE", "easy", "Administers medication and monitors patients on a ward."},
	{"NURSE", "medium", "Triages arrivals in the emergency department."},
	{"PHARMACIST", "easy", "Fills prescriptions and counsels patients on dosage."},
	{"PHARMACIST", "hard", "Flags drug interactions in a polypharmacy review."},
	{"PILOT", "easy", "Flies commercial aircraft."},
	{"PILOT", "medium", "Completes the preflight checklist and files a flight plan."},
	{"PLUMBER", "easy", "Fixes leaking pipes and unclogs drains."},
	{"PLUMBER", "medium", "Sizes vent stacks for a new bathroom."},
	{"POLICE_OFFICER", "easy", "Patrols neighborhoods and responds to emergency calls."},
	{"POLICE_OFFICER", "medium", "Writes incident reports and preserves a chain of custody."},
	{"PRODUCT_MANAGER", "medium", "Prioritizes the roadmap and writes requirements."},
	{"PRODUCT_MANAGER", "hard", "Negotiates scope tradeoffs between engineering and sales."},
	{"PSYCHOLOGIST", "easy", "Provides therapy and assesses mental health."},
	{"PSYCHOLOGIST", "hard", "Administers standardized cognitive assessments."},
	{"SALES_REP", "easy", "Pitches products to prospective customers."},
	{"SALES_REP", "medium", "Works a pipeline to hit a quarterly quota."},
	{"SCIENTIST", "easy", "Runs experiments in a laboratory."},
	{"SCIENTIST", "medium", "Writes grant proposals and publishes peer-reviewed papers."},
	{"SOCIAL_WORKER", "easy", "Connects families with community services."},
	{"SOCIAL_WORKER", "medium", "Manages a caseload and conducts home visits."},
	{"SOFTWARE_ENGINEER", "easy", "Writes and debugs code."},
	{"SOFTWARE_ENGINEER", "medium", "Reviews pull requests and fixes flaky tests in CI."},
	{"TEACHER", "easy", "Plans lessons and grades homework."},
	{"TEACHER", "medium", "Differentiates instruction for a mixed-ability classroom."},
	{"TRANSLATOR", "easy", "Converts documents from one language to another."},
	{"TRANSLATOR", "hard", "Localizes idioms while preserving the register of a legal text."},
	{"UX_RESEARCHER", "medium", "Runs usability tests with real users."},
	{"UX_RESEARCHER", "hard", "Synthesizes interview notes into an affinity map."},
	{"VETERINARIAN", "easy", "Treats sick animals."},
	{"VETERINARIAN", "medium", "Performs spay and neuter surgeries at a clinic."},
	{"WELDER", "easy", "Joins metal parts with intense heat."},
	{"WELDER", "medium", "Certifies a TIG weld on stainless pipe."},
	{"ECONOMIST", "medium", "Forecasts inflation and interest rates."},
	{"ECONOMIST", "hard", "Estimates price elasticity from panel data."},
	{"CARPENTER", "easy", "Frames walls and builds cabinets."},
	{"CARPENTER", "medium", "Cuts stair stringers to a specified rise and run."},
}

// DefaultCategories lists the distinct category codes of DefaultCatalog in
// catalog order.
func DefaultCategories() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range DefaultCatalog {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	return out
}

// EnsureDefaults creates room when no room exists and loads DefaultCatalog
// into an empty question table. It returns the id of the first room.
func EnsureDefaults(ctx context.Context, s Seeder, room game.Room) (string, error) {
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return "", err
	}
	roomID := ""
	if len(rooms) > 0 {
		roomID = rooms[0].ID
	} else if roomID, err = s.CreateRoom(ctx, room); err != nil {
		return "", err
	}

	n, err := s.CountQuestions(ctx)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return roomID, nil
	}
	for _, c := range DefaultCatalog {
		q := game.Question{Text: c.Text, Category: c.Category, Difficulty: c.Difficulty, Topic: "careers"}
		if _, err := s.CreateQuestion(ctx, q); err != nil {
			return "", err
		}
	}
	return roomID, nil
}
