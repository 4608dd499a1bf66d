package cart

import (
	"context"
	"fmt"
)

// Draft lifecycle: no draft, then a draft under construction whose derived
// summary is rebuilt after every ingredient change, then promotion into the
// custom collection. A promoted draft is gone; editing an already-added
// custom meal means building a new draft from its snapshot.

// Draft returns the current draft or nil. The returned pointer aliases the
// store state; use the mutating operations to persist changes.
func (s *CartStore) Draft() *CustomMealDraft {
	return s.state.CustomMealDraft
}

// EnsureDraft returns the current draft, creating an empty one if absent.
// The new draft is not persisted until its first mutation.
func (s *CartStore) EnsureDraft() *CustomMealDraft {
	if s.state.CustomMealDraft == nil {
		s.state.CustomMealDraft = NewCustomMealDraft()
	}
	return s.state.CustomMealDraft
}

// SetDraft replaces the draft wholesale and rederives its summary so a
// hand-assembled draft can never carry stale nutrition or price.
func (s *CartStore) SetDraft(ctx context.Context, draft *CustomMealDraft) error {
	if draft != nil {
		if draft.Product.Ingredients == nil {
			draft.Product.Ingredients = []IngredientLine{}
		}
		RecalculateCustomMealSummary(&draft.Product)
	}
	s.state.CustomMealDraft = draft
	return s.save(ctx)
}

func (s *CartStore) ClearDraft(ctx context.Context) error {
	s.state.CustomMealDraft = nil
	return s.save(ctx)
}

// AddDraftIngredient puts ing into the draft, creating the draft on first
// use. A draft holds at most one line per ingredient ID: re-adding an
// ingredient overwrites the stored weight with the new one, matching the
// slider flow where the control always shows the absolute weight.
func (s *CartStore) AddDraftIngredient(ctx context.Context, ing IngredientLine) error {
	if ing.WeightGrams <= 0 {
		return fmt.Errorf("ingredient %d: weight must be positive", ing.ID)
	}

	draft := s.EnsureDraft()

	replaced := false
	for i := range draft.Product.Ingredients {
		if draft.Product.Ingredients[i].ID == ing.ID {
			draft.Product.Ingredients[i] = ing
			replaced = true
			break
		}
	}
	if !replaced {
		draft.Product.Ingredients = append(draft.Product.Ingredients, ing)
	}

	RecalculateCustomMealSummary(&draft.Product)
	return s.save(ctx)
}

// RemoveDraftIngredient drops the ingredient from the draft and rederives
// the summary. Removing an ingredient that is not in the draft is a no-op.
func (s *CartStore) RemoveDraftIngredient(ctx context.Context, ingredientID int64) error {
	draft := s.state.CustomMealDraft
	if draft == nil {
		return nil
	}

	kept := draft.Product.Ingredients[:0]
	for _, ing := range draft.Product.Ingredients {
		if ing.ID != ingredientID {
			kept = append(kept, ing)
		}
	}
	draft.Product.Ingredients = kept

	RecalculateCustomMealSummary(&draft.Product)
	return s.save(ctx)
}

// PromoteDraft moves the draft into the custom collection as a line item
// and resets the draft. The promoted snapshot is a deep copy: the line item
// never shares ingredient storage with a future draft.
func (s *CartStore) PromoteDraft(ctx context.Context) (*LineItem, error) {
	draft := s.state.CustomMealDraft
	if draft == nil || len(draft.Product.Ingredients) == 0 {
		return nil, fmt.Errorf("custom meal draft has no ingredients")
	}

	RecalculateCustomMealSummary(&draft.Product)

	amount := draft.Amount
	if amount < 1 {
		amount = 1
	}

	item := LineItem{Product: *draft.Product.Clone(), Amount: amount}
	s.state.CustomMeals = append(s.state.CustomMeals, item)
	s.state.CustomMealDraft = nil

	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return &item, nil
}
