package catalog

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/spigell/assessment-recommender/internal/apperror"
	"github.com/spigell/assessment-recommender/internal/logger"
)

const (
	reasonNoSections    = "No assessment sections found on the page. The page structure might have changed."
	reasonNoAssessments = "No valid assessments could be extracted from the page."

	previewLength = 120
)

// Extractor turns a catalog page into assessment records by trying each
// detector in order and using the first one that finds any section.
type Extractor struct {
	detectors []Detector
	origin    string
	logger    *zap.Logger
}

func NewExtractor(origin string, detectors []Detector, log *zap.Logger) *Extractor {
	return &Extractor{
		detectors: detectors,
		origin:    strings.TrimRight(origin, "/"),
		logger:    logger.WithFields(log),
	}
}

// ShapeDetectors adapts a shape cascade to the Detector list the Extractor takes.
func ShapeDetectors(shapes []Shape) []Detector {
	detectors := make([]Detector, 0, len(shapes))
	for _, shape := range shapes {
		detectors = append(detectors, shape)
	}
	return detectors
}

// Extract parses the page in r. Failures are apperror.KindExtractionFailed.
func (e *Extractor) Extract(r io.Reader) (*Assessments, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, &apperror.Error{
			Kind:    apperror.KindExtractionFailed,
			Message: "Failed to parse assessments: " + err.Error(),
			Err:     err,
		}
	}

	doc := goquery.NewDocumentFromNode(root)

	detector, sections := e.detect(doc)
	if detector == nil {
		return nil, apperror.ExtractionFailed(reasonNoSections)
	}

	assessments := &Assessments{}
	skipped := 0
	sections.Each(func(_ int, section *goquery.Selection) {
		assessment, ok := detector.Extract(section, e.origin)
		if !ok {
			skipped++
			e.logger.Debug("skipping section without name or url",
				zap.String("section_preview", logger.Preview(section.Text(), previewLength)),
			)
			return
		}
		assessments.Items = append(assessments.Items, assessment)
	})

	e.logger.Debug("catalog page extracted",
		zap.String("shape", detector.Name()),
		zap.Int("sections", sections.Length()),
		zap.Int("skipped", skipped),
		zap.Int("assessments", assessments.Len()),
	)

	if assessments.Len() == 0 {
		return nil, apperror.ExtractionFailed(reasonNoAssessments)
	}

	return assessments, nil
}

func (e *Extractor) detect(doc *goquery.Document) (Detector, *goquery.Selection) {
	for _, detector := range e.detectors {
		sections := detector.Detect(doc)
		if sections.Length() > 0 {
			return detector, sections
		}
		e.logger.Debug("page shape did not match", zap.String("shape", detector.Name()))
	}
	return nil, nil
}

// Extract reads one record out of a section. Every field is best effort, but
// a section without a name or a link is not an assessment.
func (s Shape) Extract(section *goquery.Selection, origin string) (*Assessment, bool) {
	name := strings.TrimSpace(section.Find(s.nameSelector()).First().Text())

	link := ""
	if href, ok := section.Find("a").First().Attr("href"); ok {
		link = ResolveURL(origin, href)
	}

	if name == "" || link == "" {
		return nil, false
	}

	description := strings.TrimSpace(section.Find(s.descriptionSelector()).First().Text())

	return &Assessment{
		Name:            name,
		URL:             link,
		RemoteTesting:   defaultRemoteTesting,
		AdaptiveSupport: defaultAdaptiveSupport,
		Duration:        ExtractDuration(description),
		TestType:        ClassifyTestType(name, description),
	}, true
}
