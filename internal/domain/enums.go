package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Enums are persisted by name. Each enum also keeps an append-only value
// table so rows written by older installs, which stored declaration
// positions, still decode. New values go at the END of a table, never in
// the middle.
type enumTable[E ~string] struct {
	values   []E
	fallback E
}

// parse accepts a name (case-insensitive) or a legacy ordinal and falls
// back to the table default for anything else.
func (t enumTable[E]) parse(s string) E {
	s = strings.TrimSpace(s)
	for _, v := range t.values {
		if strings.EqualFold(string(v), s) {
			return v
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(t.values) {
		return t.values[n]
	}
	return t.fallback
}

func (t enumTable[E]) ordinal(v E) int {
	for i, candidate := range t.values {
		if candidate == v {
			return i
		}
	}
	return -1
}

func (t enumTable[E]) valid(v E) bool {
	return t.ordinal(v) >= 0
}

// decode reads either a JSON string or a JSON number. Malformed input
// yields the fallback rather than an error.
func (t enumTable[E]) decode(data []byte) E {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return t.parse(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return t.parse(strconv.Itoa(n))
	}
	return t.fallback
}

// ProjectType classifies a production.
type ProjectType string

const (
	ProjectTypeFilm        ProjectType = "film"
	ProjectTypeSeries      ProjectType = "series"
	ProjectTypeShort       ProjectType = "short"
	ProjectTypeCommercial  ProjectType = "commercial"
	ProjectTypeMusicVideo  ProjectType = "music_video"
	ProjectTypeDocumentary ProjectType = "documentary"
	ProjectTypeAnimation   ProjectType = "animation"
	ProjectTypeComic       ProjectType = "comic"
)

var projectTypes = enumTable[ProjectType]{
	values: []ProjectType{
		ProjectTypeFilm, ProjectTypeSeries, ProjectTypeShort, ProjectTypeCommercial,
		ProjectTypeMusicVideo, ProjectTypeDocumentary, ProjectTypeAnimation, ProjectTypeComic,
	},
	fallback: ProjectTypeFilm,
}

func ParseProjectType(s string) ProjectType { return projectTypes.parse(s) }
func (v ProjectType) Ordinal() int           { return projectTypes.ordinal(v) }
func (v ProjectType) Valid() bool            { return projectTypes.valid(v) }
func (v *ProjectType) UnmarshalJSON(b []byte) error {
	*v = projectTypes.decode(b)
	return nil
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusReview     ProjectStatus = "review"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusArchived   ProjectStatus = "archived"
)

var projectStatuses = enumTable[ProjectStatus]{
	values: []ProjectStatus{
		ProjectStatusDraft, ProjectStatusInProgress, ProjectStatusReview,
		ProjectStatusCompleted, ProjectStatusArchived,
	},
	fallback: ProjectStatusDraft,
}

func ParseProjectStatus(s string) ProjectStatus { return projectStatuses.parse(s) }
func (v ProjectStatus) Ordinal() int             { return projectStatuses.ordinal(v) }
func (v ProjectStatus) Valid() bool              { return projectStatuses.valid(v) }
func (v *ProjectStatus) UnmarshalJSON(b []byte) error {
	*v = projectStatuses.decode(b)
	return nil
}

// ProjectPhase is the production phase.
type ProjectPhase string

const (
	PhaseDevelopment    ProjectPhase = "development"
	PhasePreProduction  ProjectPhase = "pre_production"
	PhaseProduction     ProjectPhase = "production"
	PhasePostProduction ProjectPhase = "post_production"
	PhaseDistribution   ProjectPhase = "distribution"
)

var projectPhases = enumTable[ProjectPhase]{
	values: []ProjectPhase{
		PhaseDevelopment, PhasePreProduction, PhaseProduction, PhasePostProduction, PhaseDistribution,
	},
	fallback: PhaseDevelopment,
}

func ParseProjectPhase(s string) ProjectPhase { return projectPhases.parse(s) }
func (v ProjectPhase) Ordinal() int            { return projectPhases.ordinal(v) }
func (v ProjectPhase) Valid() bool             { return projectPhases.valid(v) }
func (v *ProjectPhase) UnmarshalJSON(b []byte) error {
	*v = projectPhases.decode(b)
	return nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorities = enumTable[Priority]{
	values:   []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent},
	fallback: PriorityMedium,
}

func ParsePriority(s string) Priority { return priorities.parse(s) }
func (v Priority) Ordinal() int        { return priorities.ordinal(v) }
func (v Priority) Valid() bool         { return priorities.valid(v) }
func (v *Priority) UnmarshalJSON(b []byte) error {
	*v = priorities.decode(b)
	return nil
}

type StoryStatus string

const (
	StoryStatusOutline  StoryStatus = "outline"
	StoryStatusDraft    StoryStatus = "draft"
	StoryStatusRevision StoryStatus = "revision"
	StoryStatusFinal    StoryStatus = "final"
)

var storyStatuses = enumTable[StoryStatus]{
	values:   []StoryStatus{StoryStatusOutline, StoryStatusDraft, StoryStatusRevision, StoryStatusFinal},
	fallback: StoryStatusOutline,
}

func ParseStoryStatus(s string) StoryStatus { return storyStatuses.parse(s) }
func (v StoryStatus) Ordinal() int           { return storyStatuses.ordinal(v) }
func (v StoryStatus) Valid() bool            { return storyStatuses.valid(v) }
func (v *StoryStatus) UnmarshalJSON(b []byte) error {
	*v = storyStatuses.decode(b)
	return nil
}

type Genre string

const (
	GenreDrama       Genre = "drama"
	GenreComedy      Genre = "comedy"
	GenreThriller    Genre = "thriller"
	GenreHorror      Genre = "horror"
	GenreSciFi       Genre = "scifi"
	GenreFantasy     Genre = "fantasy"
	GenreRomance     Genre = "romance"
	GenreAction      Genre = "action"
	GenreDocumentary Genre = "documentary"
	GenreOther       Genre = "other"
)

var genres = enumTable[Genre]{
	values: []Genre{
		GenreDrama, GenreComedy, GenreThriller, GenreHorror, GenreSciFi,
		GenreFantasy, GenreRomance, GenreAction, GenreDocumentary, GenreOther,
	},
	fallback: GenreOther,
}

func ParseGenre(s string) Genre { return genres.parse(s) }
func (v Genre) Ordinal() int     { return genres.ordinal(v) }
func (v Genre) Valid() bool      { return genres.valid(v) }
func (v *Genre) UnmarshalJSON(b []byte) error {
	*v = genres.decode(b)
	return nil
}

type ScriptFormat string

const (
	FormatScreenplay ScriptFormat = "screenplay"
	FormatTeleplay   ScriptFormat = "teleplay"
	FormatStageplay  ScriptFormat = "stageplay"
	FormatComic      ScriptFormat = "comic"
	FormatAudio      ScriptFormat = "audio"
)

var scriptFormats = enumTable[ScriptFormat]{
	values:   []ScriptFormat{FormatScreenplay, FormatTeleplay, FormatStageplay, FormatComic, FormatAudio},
	fallback: FormatScreenplay,
}

func ParseScriptFormat(s string) ScriptFormat { return scriptFormats.parse(s) }
func (v ScriptFormat) Ordinal() int            { return scriptFormats.ordinal(v) }
func (v ScriptFormat) Valid() bool             { return scriptFormats.valid(v) }
func (v *ScriptFormat) UnmarshalJSON(b []byte) error {
	*v = scriptFormats.decode(b)
	return nil
}

type TimeOfDay string

const (
	TimeDay        TimeOfDay = "day"
	TimeNight      TimeOfDay = "night"
	TimeDawn       TimeOfDay = "dawn"
	TimeDusk       TimeOfDay = "dusk"
	TimeContinuous TimeOfDay = "continuous"
)

var timesOfDay = enumTable[TimeOfDay]{
	values:   []TimeOfDay{TimeDay, TimeNight, TimeDawn, TimeDusk, TimeContinuous},
	fallback: TimeDay,
}

func ParseTimeOfDay(s string) TimeOfDay { return timesOfDay.parse(s) }
func (v TimeOfDay) Ordinal() int         { return timesOfDay.ordinal(v) }
func (v TimeOfDay) Valid() bool          { return timesOfDay.valid(v) }
func (v *TimeOfDay) UnmarshalJSON(b []byte) error {
	*v = timesOfDay.decode(b)
	return nil
}

type CharacterRole string

const (
	RoleProtagonist CharacterRole = "protagonist"
	RoleAntagonist  CharacterRole = "antagonist"
	RoleSupporting  CharacterRole = "supporting"
	RoleMinor       CharacterRole = "minor"
	RoleNarrator    CharacterRole = "narrator"
)

var characterRoles = enumTable[CharacterRole]{
	values:   []CharacterRole{RoleProtagonist, RoleAntagonist, RoleSupporting, RoleMinor, RoleNarrator},
	fallback: RoleSupporting,
}

func ParseCharacterRole(s string) CharacterRole { return characterRoles.parse(s) }
func (v CharacterRole) Ordinal() int             { return characterRoles.ordinal(v) }
func (v CharacterRole) Valid() bool              { return characterRoles.valid(v) }
func (v *CharacterRole) UnmarshalJSON(b []byte) error {
	*v = characterRoles.decode(b)
	return nil
}

type RelationshipType string

const (
	RelationshipFamily    RelationshipType = "family"
	RelationshipFriend    RelationshipType = "friend"
	RelationshipRival     RelationshipType = "rival"
	RelationshipRomantic  RelationshipType = "romantic"
	RelationshipMentor    RelationshipType = "mentor"
	RelationshipAlly      RelationshipType = "ally"
	RelationshipEnemy     RelationshipType = "enemy"
	RelationshipColleague RelationshipType = "colleague"
	RelationshipOther     RelationshipType = "other"
)

var relationshipTypes = enumTable[RelationshipType]{
	values: []RelationshipType{
		RelationshipFamily, RelationshipFriend, RelationshipRival, RelationshipRomantic,
		RelationshipMentor, RelationshipAlly, RelationshipEnemy, RelationshipColleague, RelationshipOther,
	},
	fallback: RelationshipOther,
}

func ParseRelationshipType(s string) RelationshipType { return relationshipTypes.parse(s) }
func (v RelationshipType) Ordinal() int                { return relationshipTypes.ordinal(v) }
func (v RelationshipType) Valid() bool                 { return relationshipTypes.valid(v) }
func (v *RelationshipType) UnmarshalJSON(b []byte) error {
	*v = relationshipTypes.decode(b)
	return nil
}

type ShotType string

const (
	ShotWide           ShotType = "wide"
	ShotMedium         ShotType = "medium"
	ShotCloseUp        ShotType = "close_up"
	ShotExtremeCloseUp ShotType = "extreme_close_up"
	ShotOverShoulder   ShotType = "over_shoulder"
	ShotPOV            ShotType = "pov"
	ShotInsert         ShotType = "insert"
	ShotEstablishing   ShotType = "establishing"
)

var shotTypes = enumTable[ShotType]{
	values: []ShotType{
		ShotWide, ShotMedium, ShotCloseUp, ShotExtremeCloseUp,
		ShotOverShoulder, ShotPOV, ShotInsert, ShotEstablishing,
	},
	fallback: ShotMedium,
}

func ParseShotType(s string) ShotType { return shotTypes.parse(s) }
func (v ShotType) Ordinal() int        { return shotTypes.ordinal(v) }
func (v ShotType) Valid() bool         { return shotTypes.valid(v) }
func (v *ShotType) UnmarshalJSON(b []byte) error {
	*v = shotTypes.decode(b)
	return nil
}

type CameraMovement string

const (
	CameraStatic   CameraMovement = "static"
	CameraPan      CameraMovement = "pan"
	CameraTilt     CameraMovement = "tilt"
	CameraDolly    CameraMovement = "dolly"
	CameraTracking CameraMovement = "tracking"
	CameraCrane    CameraMovement = "crane"
	CameraHandheld CameraMovement = "handheld"
	CameraZoom     CameraMovement = "zoom"
)

var cameraMovements = enumTable[CameraMovement]{
	values: []CameraMovement{
		CameraStatic, CameraPan, CameraTilt, CameraDolly,
		CameraTracking, CameraCrane, CameraHandheld, CameraZoom,
	},
	fallback: CameraStatic,
}

func ParseCameraMovement(s string) CameraMovement { return cameraMovements.parse(s) }
func (v CameraMovement) Ordinal() int              { return cameraMovements.ordinal(v) }
func (v CameraMovement) Valid() bool               { return cameraMovements.valid(v) }
func (v *CameraMovement) UnmarshalJSON(b []byte) error {
	*v = cameraMovements.decode(b)
	return nil
}

type ContentType string

const (
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"
	ContentText     ContentType = "text"
)

var contentTypes = enumTable[ContentType]{
	values:   []ContentType{ContentImage, ContentVideo, ContentAudio, ContentDocument, ContentText},
	fallback: ContentText,
}

func ParseContentType(s string) ContentType { return contentTypes.parse(s) }
func (v ContentType) Ordinal() int           { return contentTypes.ordinal(v) }
func (v ContentType) Valid() bool            { return contentTypes.valid(v) }
func (v *ContentType) UnmarshalJSON(b []byte) error {
	*v = contentTypes.decode(b)
	return nil
}

type DeliverableStatus string

const (
	DeliverablePending    DeliverableStatus = "pending"
	DeliverableInProgress DeliverableStatus = "in_progress"
	DeliverableDelivered  DeliverableStatus = "delivered"
	DeliverableApproved   DeliverableStatus = "approved"
)

var deliverableStatuses = enumTable[DeliverableStatus]{
	values: []DeliverableStatus{
		DeliverablePending, DeliverableInProgress, DeliverableDelivered, DeliverableApproved,
	},
	fallback: DeliverablePending,
}

func ParseDeliverableStatus(s string) DeliverableStatus { return deliverableStatuses.parse(s) }
func (v DeliverableStatus) Ordinal() int                 { return deliverableStatuses.ordinal(v) }
func (v DeliverableStatus) Valid() bool                  { return deliverableStatuses.valid(v) }
func (v *DeliverableStatus) UnmarshalJSON(b []byte) error {
	*v = deliverableStatuses.decode(b)
	return nil
}

// SubscriptionTier falls back to TierFree for anything it cannot read.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierStudio     SubscriptionTier = "studio"
	TierEnterprise SubscriptionTier = "enterprise"
)

var subscriptionTiers = enumTable[SubscriptionTier]{
	values:   []SubscriptionTier{TierFree, TierPro, TierStudio, TierEnterprise},
	fallback: TierFree,
}

func ParseSubscriptionTier(s string) SubscriptionTier { return subscriptionTiers.parse(s) }
func (v SubscriptionTier) Ordinal() int                { return subscriptionTiers.ordinal(v) }
func (v SubscriptionTier) Valid() bool                 { return subscriptionTiers.valid(v) }
func (v *SubscriptionTier) UnmarshalJSON(b []byte) error {
	*v = subscriptionTiers.decode(b)
	return nil
}

type PublishingPlatform string

const (
	PlatformYouTube   PublishingPlatform = "youtube"
	PlatformVimeo     PublishingPlatform = "vimeo"
	PlatformTikTok    PublishingPlatform = "tiktok"
	PlatformInstagram PublishingPlatform = "instagram"
	PlatformWeb       PublishingPlatform = "web"
	PlatformFestival  PublishingPlatform = "festival"
)

var publishingPlatforms = enumTable[PublishingPlatform]{
	values: []PublishingPlatform{
		PlatformYouTube, PlatformVimeo, PlatformTikTok, PlatformInstagram, PlatformWeb, PlatformFestival,
	},
	fallback: PlatformWeb,
}

func ParsePublishingPlatform(s string) PublishingPlatform { return publishingPlatforms.parse(s) }
func (v PublishingPlatform) Ordinal() int                  { return publishingPlatforms.ordinal(v) }
func (v PublishingPlatform) Valid() bool                   { return publishingPlatforms.valid(v) }
func (v *PublishingPlatform) UnmarshalJSON(b []byte) error {
	*v = publishingPlatforms.decode(b)
	return nil
}

type PublishingStatus string

const (
	PublishingDraft     PublishingStatus = "draft"
	PublishingScheduled PublishingStatus = "scheduled"
	PublishingPublished PublishingStatus = "published"
	PublishingFailed    PublishingStatus = "failed"
)

var publishingStatuses = enumTable[PublishingStatus]{
	values: []PublishingStatus{
		PublishingDraft, PublishingScheduled, PublishingPublished, PublishingFailed,
	},
	fallback: PublishingDraft,
}

func ParsePublishingStatus(s string) PublishingStatus { return publishingStatuses.parse(s) }
func (v PublishingStatus) Ordinal() int                { return publishingStatuses.ordinal(v) }
func (v PublishingStatus) Valid() bool                 { return publishingStatuses.valid(v) }
func (v *PublishingStatus) UnmarshalJSON(b []byte) error {
	*v = publishingStatuses.decode(b)
	return nil
}
