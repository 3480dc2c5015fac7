package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/auth"
	"github.com/fekuna/omnipos-attribute-service/internal/events"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/slug"
)

type attributeUseCase struct {
	repo      attribute.Repository
	schemas   attribute.SchemaInvalidator
	publisher events.Publisher
	logger    logger.ZapLogger
}

func NewAttributeUseCase(repo attribute.Repository, schemas attribute.SchemaInvalidator, publisher events.Publisher, log logger.ZapLogger) attribute.UseCase {
	return &attributeUseCase{
		repo:      repo,
		schemas:   schemas,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *attributeUseCase) CreateAttribute(ctx context.Context, input *dto.CreateAttributeInput) (*model.Attribute, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewValidation(apperror.CodeInvalidInput, "name", "name is required")
	}
	if !input.Type.Valid() {
		return nil, apperror.NewValidation(apperror.CodeInvalidInput, "type", "unknown attribute type "+string(input.Type))
	}

	s := input.Slug
	if strings.TrimSpace(s) == "" {
		s = name
	}
	s = slug.Make(s)
	if s == "" {
		return nil, apperror.NewValidation(apperror.CodeInvalidInput, "slug", "slug is required")
	}
	taken, err := uc.repo.SlugExists(ctx, s, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.NewValidation(apperror.CodeSlugTaken, "slug", "slug "+s+" is already used by another attribute")
	}

	id := uuid.New().String()
	now := time.Now()

	attr := &model.Attribute{
		BaseModel:    model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Name:         name,
		Slug:         s,
		Type:         input.Type,
		IsFilterable: input.IsFilterable,
		MinValue:     input.MinValue,
		MaxValue:     input.MaxValue,
	}
	if u := strings.TrimSpace(input.Unit); u != "" {
		attr.Unit = &u
	}

	order := 0
	for _, v := range input.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		order++
		attr.AttributeValues = append(attr.AttributeValues, model.AttributeValue{
			ID:          uuid.New().String(),
			AttributeID: id,
			Value:       v,
			Order:       order,
		})
	}

	if err := checkDefinition(attr); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, attr); err != nil {
		return nil, err
	}

	uc.logger.Info("attribute created",
		zap.String("attribute_id", attr.ID),
		zap.String("slug", attr.Slug),
		zap.String("type", string(attr.Type)),
		zap.String("actor", auth.GetActor(ctx)),
	)
	return attr, nil
}

func (uc *attributeUseCase) GetAttribute(ctx context.Context, id string) (*model.Attribute, error) {
	attr, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, apperror.NewNotFound(apperror.CodeAttributeNotFound, id)
	}
	return attr, nil
}

func (uc *attributeUseCase) ListAttributes(ctx context.Context, filters *dto.AttributeFilters) ([]model.Attribute, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *attributeUseCase) UpdateAttribute(ctx context.Context, input *dto.UpdateAttributeInput) (*model.Attribute, error) {
	attr, err := uc.GetAttribute(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.NewValidation(apperror.CodeInvalidInput, "name", "name is required")
		}
		attr.Name = name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, apperror.NewValidation(apperror.CodeInvalidInput, "type", "unknown attribute type "+string(*input.Type))
		}
		attr.Type = *input.Type
	}
	if input.Unit != nil {
		u := strings.TrimSpace(*input.Unit)
		if u == "" {
			attr.Unit = nil
		} else {
			attr.Unit = &u
		}
	}
	if input.IsFilterable != nil {
		attr.IsFilterable = *input.IsFilterable
	}
	if input.MinValue != nil {
		attr.MinValue = input.MinValue
	}
	if input.MaxValue != nil {
		attr.MaxValue = input.MaxValue
	}

	replaceValues := input.Values != nil
	if replaceValues {
		attr.AttributeValues = mergeValues(attr, *input.Values)
	}

	// Re-checked against the resulting attribute, so a TEXT -> SELECT change
	// has to bring its values in the same call.
	if err := checkDefinition(attr); err != nil {
		return nil, err
	}

	attr.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, attr, replaceValues); err != nil {
		return nil, err
	}

	uc.attributeChanged(ctx, attr.ID)
	return attr, nil
}

func (uc *attributeUseCase) AddValue(ctx context.Context, attributeID, value string) (*dto.AddValueResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperror.NewValidation(apperror.CodeInvalidInput, "value", "value is required")
	}

	attr, err := uc.GetAttribute(ctx, attributeID)
	if err != nil {
		return nil, err
	}

	av := &model.AttributeValue{
		ID:          uuid.New().String(),
		AttributeID: attributeID,
		Value:       value,
		Order:       attr.MaxOrder() + 1,
	}

	result := &dto.AddValueResult{Value: av}
	for _, existing := range attr.AttributeValues {
		if strings.EqualFold(existing.Value, value) {
			result.Warning = &dto.DuplicateValueWarning{
				AttributeID: attributeID,
				Value:       value,
				ExistingID:  existing.ID,
			}
			uc.logger.Warn("duplicate attribute value added",
				zap.String("attribute_id", attributeID),
				zap.String("value", value),
				zap.String("existing_id", existing.ID),
			)
			break
		}
	}

	if err := uc.repo.AddValue(ctx, av); err != nil {
		return nil, err
	}

	uc.attributeChanged(ctx, attributeID)
	return result, nil
}

// RemoveValue leaves gaps in the remaining orders; values keep their rank.
func (uc *attributeUseCase) RemoveValue(ctx context.Context, attributeID, valueID string) error {
	attr, err := uc.GetAttribute(ctx, attributeID)
	if err != nil {
		return err
	}
	if _, ok := attr.FindValue(valueID); !ok {
		return apperror.NewNotFound(apperror.CodeValueNotFound, valueID)
	}

	if attr.Type.Enumerable() && len(attr.AttributeValues) == 1 {
		categories, err := uc.repo.CategoryIDs(ctx, attributeID)
		if err != nil {
			return err
		}
		if len(categories) > 0 {
			return apperror.NewValidation(apperror.CodeMissingValues, attributeID,
				"cannot remove the last value of an attribute assigned to categories")
		}
	}

	if err := uc.repo.RemoveValue(ctx, attributeID, valueID); err != nil {
		return err
	}

	uc.attributeChanged(ctx, attributeID)
	return nil
}

func (uc *attributeUseCase) DeleteAttribute(ctx context.Context, id string) (*dto.DeleteAttributeResult, error) {
	if _, err := uc.GetAttribute(ctx, id); err != nil {
		return nil, err
	}

	categoryIDs, err := uc.repo.DeleteCascade(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(categoryIDs) > 0 {
		uc.logger.Warn("attribute deleted with category bindings",
			zap.String("attribute_id", id),
			zap.Strings("category_ids", categoryIDs),
		)
		if err := uc.schemas.InvalidateCategories(ctx, categoryIDs...); err != nil {
			uc.logger.Error("failed to invalidate category schemas", zap.Error(err))
		}
	}

	uc.publish(ctx, events.AttributeDeleted, id, categoryIDs)

	return &dto.DeleteAttributeResult{
		AttributeID:         id,
		AffectedCategoryIDs: categoryIDs,
	}, nil
}

// attributeChanged invalidates every category schema embedding the
// attribute and tells the other instances to do the same.
func (uc *attributeUseCase) attributeChanged(ctx context.Context, attributeID string) {
	categoryIDs, err := uc.repo.CategoryIDs(ctx, attributeID)
	if err != nil {
		uc.logger.Error("failed to list categories for attribute", zap.String("attribute_id", attributeID), zap.Error(err))
		return
	}
	if len(categoryIDs) == 0 {
		return
	}
	if err := uc.schemas.InvalidateCategories(ctx, categoryIDs...); err != nil {
		uc.logger.Error("failed to invalidate category schemas", zap.Error(err))
	}
	uc.publish(ctx, events.AttributeUpdated, attributeID, categoryIDs)
}

func (uc *attributeUseCase) publish(ctx context.Context, eventType, attributeID string, categoryIDs []string) {
	evt := events.New(eventType, events.CatalogPayload{
		AttributeID: attributeID,
		CategoryIDs: categoryIDs,
		Actor:       auth.GetActor(ctx),
	})
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.Error("failed to publish catalog event",
			zap.String("event_type", eventType),
			zap.String("attribute_id", attributeID),
			zap.Error(err),
		)
	}
}

// checkDefinition enforces the type-dependent rules of an attribute
// definition.
func checkDefinition(attr *model.Attribute) error {
	if attr.Type.Enumerable() && len(attr.AttributeValues) == 0 {
		return apperror.NewValidation(apperror.CodeMissingValues, "attributeValues",
			string(attr.Type)+" attributes need at least one value")
	}
	if attr.MinValue != nil && attr.MaxValue != nil && *attr.MinValue > *attr.MaxValue {
		return apperror.NewValidation(apperror.CodeOutOfRange, "minValue", "minValue is greater than maxValue")
	}
	return nil
}

// mergeValues builds the replacement value list. Known ids keep their
// identity; new entries get fresh ids. Order follows the input position.
func mergeValues(attr *model.Attribute, inputs []dto.ValueInput) []model.AttributeValue {
	out := make([]model.AttributeValue, 0, len(inputs))
	order := 0
	for _, in := range inputs {
		v := strings.TrimSpace(in.Value)
		if v == "" {
			continue
		}
		id := in.ID
		if _, ok := attr.FindValue(id); !ok || id == "" {
			id = uuid.New().String()
		}
		order++
		out = append(out, model.AttributeValue{
			ID:          id,
			AttributeID: attr.ID,
			Value:       v,
			Order:       order,
		})
	}
	return out
}
