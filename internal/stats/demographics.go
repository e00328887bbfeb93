package stats

import (
	"time"

	"github.com/huangang/evalstats/internal/models"
)

// ComputeDemographics counts one respondent into the demographics summary.
// Sessions without any demographic answer are ignored.
func ComputeDemographics(s *models.ParticipantSession, snap *Snapshot, now time.Time) Decision {
	if s == nil || s.Demographics.IsEmpty() {
		return Noop("session has no demographics")
	}

	d := cloneDemographics(snap.Demographics)
	d.TotalParticipantsWithDemographics = increment(d.TotalParticipantsWithDemographics)

	demo := s.Demographics
	d.AgeGroupDistribution = bump(d.AgeGroupDistribution, demo.AgeGroup)
	d.GenderDistribution = bump(d.GenderDistribution, demo.Gender)
	d.EducationLevelDistribution = bump(d.EducationLevelDistribution, demo.EducationLevel)
	d.FieldOfExpertiseDistribution = bump(d.FieldOfExpertiseDistribution, demo.FieldOfExpertise)
	d.AIFamiliarityDistribution = bump(d.AIFamiliarityDistribution, demo.AIFamiliarity)
	d.LastUpdatedAt = now

	return Update(Writes{Demographics: d})
}
