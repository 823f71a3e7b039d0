package db

import (
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

type seedDefect struct {
	category, title, description string
}

type seedProfile struct {
	name    string
	age     int
	bio     string
	defects []seedDefect
	images  []string
}

var demoProfiles = []seedProfile{
	{
		name: "Carlos", age: 32,
		bio: "Gordo y orgulloso. Me encanta comer y no me avergüenzo de mi barriga.",
		defects: []seedDefect{
			{CategoryPhysical, "Sobrepeso", "Tengo 40 kilos de más y una barriga prominente"},
			{CategoryPhysical, "Calvicie avanzada", "Perdí todo el pelo a los 28 años"},
			{CategoryPersonality, "Procrastinador crónico", "Dejo todo para último momento"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1463453091185-61582044d556?w=800",
			"https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=800",
		},
	},
	{
		name: "María", age: 28,
		bio: "Acné adulto y carácter fuerte. No finjo ser perfecta.",
		defects: []seedDefect{
			{CategoryPhysical, "Acné severo", "Tengo acné en cara y espalda desde la adolescencia"},
			{CategoryPhysical, "Ojeras pronunciadas", "Siempre parezco cansada por mis ojeras"},
			{CategoryPersonality, "Mal genio", "Me enojo fácilmente y grito cuando me frustro"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1494790108377-be9c29b29330?w=800",
			"https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=800",
		},
	},
	{
		name: "Jorge", age: 45,
		bio: "Canoso prematuro y adicto al trabajo. La vida me marcó.",
		defects: []seedDefect{
			{CategoryPhysical, "Canas prematuras", "Todo el pelo gris desde los 30"},
			{CategoryPhysical, "Arrugas profundas", "Arrugas marcadas en frente y ojos"},
			{CategoryPersonality, "Workaholic", "No puedo desconectar del trabajo, reviso emails 24/7"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1560250097-0b93528c311a?w=800",
		},
	},
	{
		name: "Laura", age: 35,
		bio: "Celulitis visible e insegura. Aprendiendo a aceptarme.",
		defects: []seedDefect{
			{CategoryPhysical, "Celulitis severa", "Celulitis visible en piernas y glúteos"},
			{CategoryPhysical, "Estrías", "Estrías en abdomen y muslos"},
			{CategoryPersonality, "Baja autoestima", "Me comparo constantemente con otros"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1539571696357-5a69c17a67c6?w=800",
			"https://images.unsplash.com/photo-1524504388940-b1c1722653e1?w=800",
		},
	},
	{
		name: "Miguel", age: 41,
		bio: "Calvo, con manchas y un ego enorme. Al menos soy honesto.",
		defects: []seedDefect{
			{CategoryPhysical, "Calvicie total", "Ni un pelo en la cabeza, calvo completo"},
			{CategoryPhysical, "Manchas de edad", "Manchas cafés en cara y brazos"},
			{CategoryPersonality, "Egocéntrico", "Todo gira en torno a mí, primero yo"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1506794778202-cad84cf45f1d?w=800",
		},
	},
	{
		name: "Diana", age: 30,
		bio: "Piel imperfecta y celosa. Trabajo en ello.",
		defects: []seedDefect{
			{CategoryPhysical, "Cicatrices de acné", "Marcas profundas en mejillas y frente"},
			{CategoryPhysical, "Piel grasa", "Cara siempre brillante por grasa excesiva"},
			{CategoryEmotional, "Celos enfermizos", "Reviso el celular de mi pareja constantemente"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1534528741775-53994a69daeb?w=800",
		},
	},
	{
		name: "Pablo", age: 38,
		bio: "Llego tarde, pero llego.",
		defects: []seedDefect{
			{CategoryPhysical, "Barba desprolija con canas", "Barba irregular, mitad gris mitad negro"},
			{CategoryPhysical, "Entradas pronunciadas", "Frente amplia, perdiendo pelo en sienes"},
			{CategoryHabits, "Impuntualidad crónica", "Llego tarde a todo, es un problema serio"},
		},
		images: []string{
			"https://images.unsplash.com/photo-1517841905240-472988babdf9?w=800",
		},
	},
}

var fakeDefects = map[string][]string{
	CategoryEmotional:   {"Miedo al abandono", "Ansiedad social", "Celos constantes", "Cambios de humor"},
	CategoryPhysical:    {"Calvicie incipiente", "Acné adulto", "Nariz torcida", "Ojeras profundas"},
	CategoryPersonality: {"Terco como mula", "Procrastinador nato", "Perfeccionista extremo", "Impaciente"},
	CategoryHabits:      {"Ronquidos fuertes", "Adicto al celular", "Muerdo las uñas", "Desordenado"},
}

// SeedTestData resets the database and populates it with demo profiles.
//
// Behavior:
//  1. Clears matches, likes, photos, defects and users (children first).
//  2. Creates the fixed demo profiles with validated photos, the first one primary.
//  3. Creates `extra` random profiles with gofakeit names and bios.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, extra int) error {
	if err := ClearAll(db); err != nil {
		return err
	}
	log.Println("Cleared existing data")

	for _, p := range demoProfiles {
		if err := createSeedProfile(db, p); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d demo users.", len(demoProfiles))

	faker := gofakeit.New(0)
	for i := 0; i < extra; i++ {
		p := seedProfile{
			name:   faker.FirstName(),
			age:    faker.Number(18, 70),
			bio:    faker.Sentence(10),
			images: []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/800", faker.UUID())},
		}
		for _, category := range Categories {
			if faker.Bool() {
				continue
			}
			titles := fakeDefects[category]
			p.defects = append(p.defects, seedDefect{
				category:    category,
				title:       titles[faker.Number(0, len(titles)-1)],
				description: faker.Sentence(8),
			})
		}
		if len(p.defects) == 0 {
			p.defects = append(p.defects, seedDefect{CategoryHabits, "Desordenado", faker.Sentence(8)})
		}
		if err := createSeedProfile(db, p); err != nil {
			return err
		}
	}
	if extra > 0 {
		log.Printf("Seeded %d random users.", extra)
	}

	return nil
}

// ClearAll deletes every row from the application tables.
func ClearAll(db *gorm.DB) error {
	for _, table := range []string{"matches", "likes", "photos", "defects", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func createSeedProfile(db *gorm.DB, p seedProfile) error {
	bio := p.bio
	user := User{Name: p.name, Age: p.age, Bio: &bio, IsValidated: true}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to seed user %s: %w", p.name, err)
	}

	defects := make([]Defect, 0, len(p.defects))
	for i, d := range p.defects {
		defects = append(defects, Defect{
			Position:    i,
			UserID:      user.ID,
			Category:    d.category,
			Title:       d.title,
			Description: d.description,
		})
	}
	if len(defects) > 0 {
		if err := db.Create(&defects).Error; err != nil {
			return fmt.Errorf("failed to seed defects for %s: %w", p.name, err)
		}
	}

	photos := make([]Photo, 0, len(p.images))
	for i, url := range p.images {
		photos = append(photos, Photo{
			UserID:      user.ID,
			URL:         url,
			IsValidated: true,
			IsPrimary:   i == 0,
			Position:    i,
		})
	}
	if len(photos) > 0 {
		if err := db.Create(&photos).Error; err != nil {
			return fmt.Errorf("failed to seed photos for %s: %w", p.name, err)
		}
	}
	return nil
}
