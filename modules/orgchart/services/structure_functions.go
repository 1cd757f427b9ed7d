package services

import "context"

func (s *StructureService) ListFunctions(ctx context.Context, filter FunctionFilter) ([]Function, error) {
	fns, err := s.repo.ListFunctions(ctx, filter)
	return fns, s.reject(ctx, "function.list", err)
}

func (s *StructureService) GetFunction(ctx context.Context, id int64) (Function, error) {
	fn, err := s.repo.GetFunction(ctx, id)
	if err != nil {
		return Function{}, s.reject(ctx, "function.get", notFoundAs(err, KindFunction, id))
	}
	return fn, nil
}

func (s *StructureService) CreateFunction(ctx context.Context, in Function) (Function, error) {
	if err := requireNameCode(KindFunction, &in.Name, &in.Code); err != nil {
		return Function{}, s.reject(ctx, "function.create", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Function, error) {
		if err := s.checkFunctionWrite(txCtx, 0, in); err != nil {
			return Function{}, err
		}
		if err := s.repo.InsertFunction(txCtx, &in); err != nil {
			return Function{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "function.create", err)
}

func (s *StructureService) UpdateFunction(ctx context.Context, id int64, in Function) (Function, error) {
	if err := requireNameCode(KindFunction, &in.Name, &in.Code); err != nil {
		return Function{}, s.reject(ctx, "function.update", err)
	}
	out, err := inTx(ctx, s.tx, func(txCtx context.Context) (Function, error) {
		current, err := s.repo.GetFunction(txCtx, id)
		if err != nil {
			return Function{}, notFoundAs(err, KindFunction, id)
		}
		if err := s.checkFunctionWrite(txCtx, id, in); err != nil {
			return Function{}, err
		}
		in.ID = id
		in.CreatedAt = current.CreatedAt
		if err := s.repo.UpdateFunction(txCtx, &in); err != nil {
			return Function{}, err
		}
		return in, nil
	})
	return out, s.reject(ctx, "function.update", err)
}

func (s *StructureService) checkFunctionWrite(ctx context.Context, id int64, in Function) error {
	if err := requireID(KindSection, in.SectionID); err != nil {
		return err
	}
	if _, err := s.repo.GetSection(ctx, in.SectionID); err != nil {
		return notFoundAs(err, KindSection, in.SectionID)
	}
	exists, err := s.repo.FunctionCodeExists(ctx, in.Code, id)
	if err != nil {
		return err
	}
	if exists {
		return errCodeConflict(KindFunction, in.Code)
	}
	return nil
}
